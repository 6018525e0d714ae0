package inmemorystore

import (
	"testing"

	"github.com/vk/nodegraph/internal/graphstore"
	"github.com/vk/nodegraph/internal/graphstore/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) graphstore.Store { return New() })
}
