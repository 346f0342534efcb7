package service

import (
	"context"
	"sync"
)

// KeyedLocker - взаимное исключение по ключу. Разные ключи не конкурируют,
// запись о ключе удаляется, когда им никто не пользуется.
type KeyedLocker struct {
	mtx   sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

// Lock ждёт освобождения ключа или отмены ctx.
// Возвращённую функцию нужно вызвать ровно один раз.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mtx.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mtx.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	return func() {
		<-entry.sem
		l.release(key, entry)
	}, nil
}

func (l *KeyedLocker) release(key string, entry *keyedLock) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// Len - число ключей, которые сейчас удерживаются или ожидаются
func (l *KeyedLocker) Len() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.locks)
}
