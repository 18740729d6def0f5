package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ai8future/encsearch"
)

// KeyStore is an encsearch.KeyStore whose key material can be zeroed.
type KeyStore interface {
	encsearch.KeyStore
	Close()
}

// KeyFile is the JSON layout of a key file: three standard-base64 keys.
type KeyFile struct {
	DataKey   string `json:"DATA_KEY"`   // record key
	SearchKey string `json:"SEARCH_KEY"` // keyword key
	DetKey    string `json:"DET_KEY"`    // equality key
}

// KeyStore builds the KeyStore described by k.
func (k KeysConfig) KeyStore() (KeyStore, error) {
	switch {
	case k.File != "":
		loaded, err := LoadKeyFile(k.File)
		if err != nil {
			return nil, err
		}
		return loaded.KeyStore()
	case k.Master != "":
		master, err := decodeKey("master", k.Master)
		if err != nil {
			return nil, err
		}
		defer clear(master)
		ks, err := encsearch.NewDerivedKeyStore(master)
		if err != nil {
			return nil, fmt.Errorf("%w: master key: %w", encsearch.ErrConfiguration, err)
		}
		return ks, nil
	}

	record, err := decodeKey("record", k.Record)
	if err != nil {
		return nil, err
	}
	defer clear(record)
	keyword, err := decodeKey("keyword", k.Keyword)
	if err != nil {
		return nil, err
	}
	defer clear(keyword)
	equality, err := decodeKey("equality", k.Equality)
	if err != nil {
		return nil, err
	}
	defer clear(equality)
	return encsearch.NewStaticKeyStore(record, keyword, equality), nil
}

// LoadKeyFile reads a JSON key file into a KeysConfig.
func LoadKeyFile(path string) (KeysConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeysConfig{}, fmt.Errorf("%w: reading key file %s: %w", encsearch.ErrConfiguration, path, err)
	}
	var f KeyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return KeysConfig{}, fmt.Errorf("%w: parsing key file %s: %w", encsearch.ErrConfiguration, path, err)
	}
	return KeysConfig{Record: f.DataKey, Keyword: f.SearchKey, Equality: f.DetKey}, nil
}

// WriteKeyFile writes the per-purpose keys of k to path, readable only by the owner.
func WriteKeyFile(path string, k KeysConfig) error {
	data, err := json.MarshalIndent(KeyFile{DataKey: k.Record, SearchKey: k.Keyword, DetKey: k.Equality}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing key file %s: %w", path, err)
	}
	return nil
}

// GenerateKeys returns three fresh random keys.
func GenerateKeys() (KeysConfig, error) {
	var out [3]string
	for i := range out {
		key := make([]byte, encsearch.KeySize)
		if _, err := rand.Read(key); err != nil {
			return KeysConfig{}, fmt.Errorf("generating key: %w", err)
		}
		out[i] = base64.StdEncoding.EncodeToString(key)
		clear(key)
	}
	return KeysConfig{Record: out[0], Keyword: out[1], Equality: out[2]}, nil
}

func decodeKey(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %w: %s", encsearch.ErrConfiguration, encsearch.ErrKeyMissing, name)
	}
	key, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s key is not valid base64", encsearch.ErrConfiguration, name)
	}
	return key, nil
}
