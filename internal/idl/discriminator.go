// ==================================
// File: internal/idl/discriminator.go
// ==================================
package idl

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

// Discriminator derives the 8-byte Anchor discriminator for a namespaced
// name: the leading bytes of SHA-256 over "namespace:name".
func Discriminator(namespace, name string) []byte {
	hash := sha256.Sum256([]byte(namespace + ":" + name))
	return hash[:8]
}

// DiscriminatorBytes returns the instruction's declared discriminator.
// Documents that predate embedded discriminators derive the default from
// the global namespace and the snake_case method name.
func (ix *Instruction) DiscriminatorBytes() []byte {
	if len(ix.Discriminator) > 0 {
		return ix.Discriminator
	}
	return Discriminator("global", toSnakeCase(ix.Name))
}

// AccountDiscriminator returns the declared discriminator of an account
// type definition, deriving the account-namespace default when absent.
func (td *TypeDef) AccountDiscriminator() []byte {
	if len(td.Discriminator) > 0 {
		return td.Discriminator
	}
	return Discriminator("account", td.Name)
}

// toSnakeCase converts camelCase method names to the snake_case spelling
// the discriminator hash is computed over.
func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
