package httpserver

import "storefront/internal/repository/cartslot"

func cartslotForTest() *cartslot.MemorySlot {
	return cartslot.NewMemory()
}
