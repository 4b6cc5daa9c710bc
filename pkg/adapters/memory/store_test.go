package memory_test

import (
	"testing"

	"github.com/aretw0/teiinfo/pkg/adapters/memory"
	"github.com/aretw0/teiinfo/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunAnalysisStoreContract(t, store)
}
