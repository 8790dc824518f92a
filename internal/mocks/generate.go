// Package mocks provides mock implementations of the dashboard ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockSessionStore(ctrl)
//	store.EXPECT().Load(gomock.Any(), "sess-1").Return(sess, nil)
package mocks

// Generate mocks for the interfaces in internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/hr-dashboard/internal/ports SessionStore,IdentityProvider,SessionPurger,WorkspaceSweeper
