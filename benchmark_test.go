package encsearch

import (
	"context"
	"strings"
	"testing"
)

var (
	benchCipher    *RecordCipher
	benchTokenizer *Tokenizer
)

func init() {
	benchCipher, _ = NewRecordCipher(testKey("record"), AlgorithmAESGCM)
	benchTokenizer, _ = NewTokenizer(testKey("keyword"), NormalizeKeyword)
}

// Encrypt benchmarks at various payload sizes

func BenchmarkEncrypt_100B(b *testing.B) {
	data := []byte(strings.Repeat("x", 100))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchCipher.Encrypt(data)
	}
}

func BenchmarkEncrypt_10KB(b *testing.B) {
	data := []byte(strings.Repeat("x", 10*1024))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchCipher.Encrypt(data)
	}
}

func BenchmarkEncrypt_DocID(b *testing.B) {
	data := []byte("123456")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchCipher.Encrypt(data)
	}
}

func BenchmarkDecrypt_100B(b *testing.B) {
	env := benchCipher.Encrypt([]byte(strings.Repeat("x", 100)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = benchCipher.Decrypt(env)
	}
}

func BenchmarkDecrypt_10KB(b *testing.B) {
	env := benchCipher.Encrypt([]byte(strings.Repeat("x", 10*1024)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = benchCipher.Decrypt(env)
	}
}

// Token benchmarks

func BenchmarkToken_Short(b *testing.B) {
	for i := 0; i < b.N; i++ {
		benchTokenizer.Token("laptop")
	}
}

func BenchmarkToken_Long(b *testing.B) {
	value := strings.Repeat("leather wallet ", 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		benchTokenizer.Token(value)
	}
}

func BenchmarkExtract(b *testing.B) {
	text := searchableText(Record{
		Name:        "Running Shoes - SpeedX",
		Description: "Comfortable running shoes for daily training",
		Category:    "Footwear",
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ExtractKeywords(text)
	}
}

// Engine benchmarks

func BenchmarkAddRecord(b *testing.B) {
	engine, err := New(testKeyStore(), NewMemoryStore(), WithWriteVerification(false))
	if err != nil {
		b.Fatal(err)
	}
	defer engine.Close()
	ctx := context.Background()
	f := shoes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.AddRecord(ctx, f); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchByKeyword_100(b *testing.B) {
	engine, err := New(testKeyStore(), NewMemoryStore())
	if err != nil {
		b.Fatal(err)
	}
	defer engine.Close()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if _, err := engine.AddRecord(ctx, shoes()); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.SearchByKeyword(ctx, "running"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearchByEqualityField(b *testing.B) {
	engine, err := New(testKeyStore(), NewMemoryStore())
	if err != nil {
		b.Fatal(err)
	}
	defer engine.Close()
	ctx := context.Background()
	for _, f := range SampleProducts() {
		if _, err := engine.AddRecord(ctx, f); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.SearchByEqualityField(ctx, "leather wallet"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeRecord_Compressible(b *testing.B) {
	r := Record{ID: 1, Name: "x", Description: strings.Repeat("durable mesh ", 200), Category: "c", Price: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = encodeRecord(r, defaultCompressionThreshold, false)
	}
}
