package out

import "context"

// CredentialPort отдает текущий bearer-токен для каждого исходящего запроса
type CredentialPort interface {
	Token(ctx context.Context) (string, error)
}
