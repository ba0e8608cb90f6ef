package config

import "fmt"

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// SessionBucket returns the bolt bucket holding durable session state.
func (r *StoreKeyStruct) SessionBucket() []byte {
	return []byte("session")
}

// TokenKey returns the bolt key for the token stored under a scope.
func (r *StoreKeyStruct) TokenKey(scope string) []byte {
	return fmt.Appendf(nil, "%s:token", scope)
}

var StoreKey = NewStoreKeyStruct()
