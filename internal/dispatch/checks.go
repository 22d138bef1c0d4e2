package dispatch

import (
	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

type roleHolder interface {
	HasRole(name string) bool
}

type adminHolder interface {
	IsAdmin() bool
}

func author(inv commandlang.Invocation) (interface{}, bool) {
	if inv == nil {
		return nil, false
	}
	raw, ok := inv.Field(commandlang.FieldAuthor)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// RequireRole passes invocations whose author holds the named role.
func RequireRole(name string) Check {
	return func(inv commandlang.Invocation) bool {
		a, ok := author(inv)
		if !ok {
			return false
		}
		h, ok := a.(roleHolder)
		return ok && h.HasRole(name)
	}
}

// RequireAdmin passes invocations whose author holds an admin role.
func RequireAdmin() Check {
	return func(inv commandlang.Invocation) bool {
		a, ok := author(inv)
		if !ok {
			return false
		}
		h, ok := a.(adminHolder)
		return ok && h.IsAdmin()
	}
}

// AnyOf passes when at least one of checks passes.
func AnyOf(checks ...Check) Check {
	return func(inv commandlang.Invocation) bool {
		for _, c := range checks {
			if c(inv) {
				return true
			}
		}
		return false
	}
}

// AllOf passes when every one of checks passes.
func AllOf(checks ...Check) Check {
	return func(inv commandlang.Invocation) bool {
		for _, c := range checks {
			if !c(inv) {
				return false
			}
		}
		return true
	}
}
