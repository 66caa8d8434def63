package domain

type CartLine struct {
	Product  Product
	Quantity int
}

// A Cart holds at most one line per product id, in insertion order.
type Cart struct {
	Lines []CartLine
}

func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
