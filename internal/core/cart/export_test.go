package cart

func (c *Carts) LockCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
