package store_test

import (
	"testing"

	"github.com/unkn0wn-root/qrcache/store"
	"github.com/unkn0wn-root/qrcache/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store { return store.NewMemory() })
}
