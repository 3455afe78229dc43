package benchmark

import (
	"context"
	"testing"

	"github.com/zumicash/zumi-go/internal/core/domain"
	"github.com/zumicash/zumi-go/internal/proof"
)

func BenchmarkGenerator_Generate(b *testing.B) {
	ctx := context.Background()
	desc := domain.TransactionDescriptor{From: "owner", To: "pool", Amount: 2.5}

	for _, scheme := range []string{domain.ProofSchemeSHA256, domain.ProofSchemeMiMC} {
		b.Run(scheme, func(b *testing.B) {
			g, err := proof.New(scheme)
			if err != nil {
				b.Fatalf("proof.New: %v", err)
			}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := g.Generate(ctx, desc); err != nil {
					b.Fatalf("Generate: %v", err)
				}
			}
		})
	}
}

func BenchmarkGenerator_Verify(b *testing.B) {
	ctx := context.Background()
	for _, scheme := range []string{domain.ProofSchemeSHA256, domain.ProofSchemeMiMC} {
		b.Run(scheme, func(b *testing.B) {
			g, err := proof.New(scheme)
			if err != nil {
				b.Fatalf("proof.New: %v", err)
			}
			rec, err := g.Generate(ctx, domain.TransactionDescriptor{From: "owner", Amount: 1})
			if err != nil {
				b.Fatalf("Generate: %v", err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if !g.Verify(ctx, rec) {
					b.Fatal("Verify = false")
				}
			}
		})
	}
}
