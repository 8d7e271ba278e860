package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_InitialState(t *testing.T) {
	c := NewCredentials("startup-secret")
	assert.Equal(t, "startup-secret", c.Current())
	assert.False(t, c.Rotated())
}

func TestCredentials_Rotate(t *testing.T) {
	c := NewCredentials("startup-secret")
	c.Rotate("next-secret")
	assert.Equal(t, "next-secret", c.Current())
	assert.True(t, c.Rotated())

	// Rotating back to the startup value still counts as rotated.
	c.Rotate("startup-secret")
	assert.True(t, c.Rotated())
}

func TestCredentials_ConcurrentAccess(t *testing.T) {
	c := NewCredentials("secret-0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Rotate(fmt.Sprintf("secret-%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Current()
			_ = c.Rotated()
		}()
	}
	wg.Wait()

	assert.True(t, c.Rotated())
	assert.NotEmpty(t, c.Current())
}
