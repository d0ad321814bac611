package out

import "context"

// InFlightGuardPort не дает запустить второе удаление той же записи,
// пока первое не завершилось
type InFlightGuardPort interface {
	// Acquire возвращает false, если ключ уже занят
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
