package encsearch_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ai8future/encsearch"
)

func Example() {
	ctx := context.Background()

	// Three distinct 32-byte keys (in production, load from secure storage)
	keys := encsearch.NewStaticKeyStore(
		[]byte("record-key-must-be-32-bytes!!!!!"),
		[]byte("keyword-key-must-be-32-bytes!!!!"),
		[]byte("equality-key-must-be-32-bytes!!!"),
	)
	defer keys.Close()

	engine, err := encsearch.New(keys, encsearch.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	id, err := engine.AddRecord(ctx, encsearch.Fields{
		"name":        "Running Shoes - SpeedX",
		"description": "Comfortable running shoes for daily training",
		"category":    "Footwear",
		"price":       120,
	})
	if err != nil {
		panic(err)
	}
	fmt.Println("Added:", id)

	records, _ := engine.SearchByKeyword(ctx, "SHOES")
	for _, r := range records {
		fmt.Printf("Found: %s (%.0f)\n", r.Name, r.Price)
	}

	records, _ = engine.SearchByKeyword(ctx, "xyz")
	fmt.Println("xyz:", len(records))

	// Output:
	// Added: 1
	// Found: Running Shoes - SpeedX (120)
	// xyz: 0
}

func Example_equalityLookup() {
	ctx := context.Background()
	keys, err := encsearch.NewDerivedKeyStore([]byte("master-key-must-be-32-bytes!!!!!"))
	if err != nil {
		panic(err)
	}
	defer keys.Close()

	engine, err := encsearch.New(keys, encsearch.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	for _, product := range encsearch.SampleProducts() {
		if _, err := engine.AddRecord(ctx, product); err != nil {
			panic(err)
		}
	}

	// The equality field is matched case-insensitively.
	records, _ := engine.SearchByEqualityField(ctx, "LEATHER WALLET")
	for _, r := range records {
		fmt.Println(r.ID, r.Name)
	}

	// But only on the exact name.
	records, _ = engine.SearchByEqualityField(ctx, "Leather Wallets")
	fmt.Println("Leather Wallets:", len(records))

	// Output:
	// 5 Leather Wallet
	// Leather Wallets: 0
}

func ExampleKeywordExtractor() {
	extractor := encsearch.KeywordExtractor{}
	fmt.Println(extractor.Extract(`UltraFast Laptop 13" - it's 16GB`))

	// Output:
	// [16gb it's laptop ultrafast]
}

func ExampleTokenizer() {
	tok, err := encsearch.NewTokenizer([]byte("equality-key-must-be-32-bytes!!!"), encsearch.NormalizeLower)
	if err != nil {
		panic(err)
	}
	defer tok.Close()

	a := tok.Token("Leather Wallet")
	b := tok.Token("leather wallet")
	fmt.Println("Same token:", a == b)
	fmt.Println("Hex length:", len(a))
	fmt.Println("Different value:", a != tok.Token("Leather Wallets"))

	// Output:
	// Same token: true
	// Hex length: 64
	// Different value: true
}

func ExampleRecordCipher() {
	c, err := encsearch.NewRecordCipher([]byte("record-key-must-be-32-bytes!!!!!"), encsearch.AlgorithmAESGCM)
	if err != nil {
		panic(err)
	}

	plaintext := []byte(`{"id":1}`)
	a := c.Encrypt(plaintext)
	b := c.Encrypt(plaintext)

	// nonce (12) || ciphertext || tag (16)
	fmt.Println("Envelope size:", len(a))
	fmt.Println("Unlinkable:", !bytes.Equal(a, b))

	decrypted, _ := c.Decrypt(a)
	fmt.Println("Decrypted:", string(decrypted))

	stored := encsearch.EncodeEnvelope(a)
	decoded, _ := encsearch.DecodeEnvelope(stored)
	fmt.Println("Base64 round trip:", bytes.Equal(a, decoded))

	// Output:
	// Envelope size: 36
	// Unlinkable: true
	// Decrypted: {"id":1}
	// Base64 round trip: true
}
