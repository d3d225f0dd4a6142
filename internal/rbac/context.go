package rbac

import "context"

// Subject is the authenticated caller: the token subject and its role.
type Subject struct {
	ID   string
	Role string
}

type ctxKey struct{}

func WithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SubjectFrom(ctx context.Context) Subject {
	s, _ := ctx.Value(ctxKey{}).(Subject)
	return s
}
