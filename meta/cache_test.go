package meta_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping/tagmap"
	"github.com/syssam/dbmap/meta"
)

func TestCache(t *testing.T) {
	c := meta.NewCache(tagmap.Source{})

	var (
		wg     sync.WaitGroup
		models [16]*meta.Model
	)
	for i := range models {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := c.Model(reflect.TypeFor[*Northwind]())
			assert.NoError(t, err)
			models[i] = m
		}()
	}
	wg.Wait()
	for _, m := range models[1:] {
		assert.Same(t, models[0], m)
	}

	c.Forget(reflect.TypeFor[Northwind]())
	m, err := c.Model(reflect.TypeFor[Northwind]())
	require.NoError(t, err)
	assert.NotSame(t, models[0], m)

	c.Reset()
	again, err := c.Model(reflect.TypeFor[Northwind]())
	require.NoError(t, err)
	assert.NotSame(t, m, again)
}

func TestCacheError(t *testing.T) {
	c := meta.NewCache(tagmap.Source{})
	_, err := c.Model(reflect.TypeFor[int]())
	require.Error(t, err)
	_, err = c.Model(reflect.TypeFor[int]())
	require.Error(t, err)
}

func TestCacheSameNamedContexts(t *testing.T) {
	var customers, orders reflect.Type
	{
		type Shop struct{ Customers dbmap.Table[Customer] }
		customers = reflect.TypeFor[Shop]()
	}
	{
		type Shop struct{ Orders dbmap.Table[Order] }
		orders = reflect.TypeFor[Shop]()
	}
	require.Equal(t, customers.String(), orders.String())
	require.NotEqual(t, customers, orders)

	c := meta.NewCache(tagmap.Source{})
	var wg sync.WaitGroup
	for i := range 32 {
		ctx := customers
		if i%2 == 1 {
			ctx = orders
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := c.Model(ctx)
			if assert.NoError(t, err) {
				assert.Equal(t, ctx, m.ContextType())
			}
		}()
	}
	wg.Wait()

	m, err := c.Model(orders)
	require.NoError(t, err)
	tbl, err := m.GetTable(reflect.TypeFor[Order]())
	require.NoError(t, err)
	assert.NotNil(t, tbl)
}
