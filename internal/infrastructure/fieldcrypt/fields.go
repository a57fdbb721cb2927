package fieldcrypt

import "fmt"

// Cipher is the codec a FieldCipher applies.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(input string) (string, error)
	BlindIndex(value string) string
}

// FieldCipher applies a Cipher to a fixed set of named fields. Storage
// adapters call Seal right before a write and Open right after a read, so
// nothing outside the adapter sees ciphertext.
type FieldCipher struct {
	codec  Cipher
	fields map[string]struct{}
}

// NewFieldCipher binds codec to the given field names. It panics when codec
// is nil: running without a codec would silently store plaintext.
func NewFieldCipher(codec Cipher, fields ...string) *FieldCipher {
	if codec == nil {
		panic("fieldcrypt: NewFieldCipher requires a codec")
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &FieldCipher{codec: codec, fields: set}
}

// Encrypted reports whether name is one of the designated fields.
func (f *FieldCipher) Encrypted(name string) bool {
	_, ok := f.fields[name]
	return ok
}

// Seal encrypts, in place, every designated field present in values.
// Fields that are not designated are left untouched.
func (f *FieldCipher) Seal(values map[string]*string) error {
	for name, v := range values {
		if v == nil || !f.Encrypted(name) {
			continue
		}
		enc, err := f.codec.Encrypt(*v)
		if err != nil {
			return fmt.Errorf("seal %s: %w", name, err)
		}
		*v = enc
	}
	return nil
}

// Open decrypts, in place, every designated field present in values.
func (f *FieldCipher) Open(values map[string]*string) error {
	for name, v := range values {
		if v == nil || !f.Encrypted(name) {
			continue
		}
		dec, err := f.codec.Decrypt(*v)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		*v = dec
	}
	return nil
}

// Index returns the lookup key for a value stored in an encrypted field.
func (f *FieldCipher) Index(value string) string {
	return f.codec.BlindIndex(value)
}
