package redis

import "fmt"

// KeyBuilder provides namespace and environment aware key building
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a key builder. Development and staging share a
// separate prefix so they never touch production data in the same server.
func NewKeyBuilder(namespace, environment string) *KeyBuilder {
	if namespace == "" {
		namespace = "nextstep"
	}

	prefix := namespace
	if environment == "development" || environment == "staging" {
		prefix = namespace + ":staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

func (kb *KeyBuilder) KeyPolls() string {
	return kb.BuildKey(KeyPolls)
}

func (kb *KeyBuilder) KeyBallots() string {
	return kb.BuildKey(KeyBallots)
}
