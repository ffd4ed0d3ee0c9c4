package security

import "testing"

func benchmarkCipher(b *testing.B) *Cipher {
	b.Helper()
	return NewKeyManager(Config{Secret: "bench-secret"}).Cipher()
}

func benchmarkPayload(n int) string {
	payload := make([]byte, n)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	return string(payload)
}

func BenchmarkEncryptString1KB(b *testing.B) {
	c := benchmarkCipher(b)
	payload := benchmarkPayload(1024)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.EncryptString(payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecryptString1KB(b *testing.B) {
	c := benchmarkCipher(b)
	token, err := c.EncryptString(benchmarkPayload(1024))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.DecryptString(token); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncryptString64KB(b *testing.B) {
	c := benchmarkCipher(b)
	payload := benchmarkPayload(64 * 1024)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.EncryptString(payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecryptString64KB(b *testing.B) {
	c := benchmarkCipher(b)
	token, err := c.EncryptString(benchmarkPayload(64 * 1024))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.DecryptString(token); err != nil {
			b.Fatal(err)
		}
	}
}
