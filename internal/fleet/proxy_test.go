package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(n int) []ProxySlot {
	pool := make([]ProxySlot, n)
	for i := range pool {
		pool[i] = ProxySlot{Host: "proxy", Port: 10000 + i}
	}
	return pool
}

func TestAssignProxyBanding(t *testing.T) {
	pool := testPool(6)

	// first band
	assert.Equal(t, &pool[0], AssignProxy(1, pool))
	assert.Equal(t, &pool[0], AssignProxy(25, pool))
	// second band
	assert.Equal(t, &pool[1], AssignProxy(26, pool))
	assert.Equal(t, &pool[1], AssignProxy(50, pool))
	// last band
	assert.Equal(t, &pool[5], AssignProxy(150, pool))
}

func TestAssignProxyPastPoolIsDirect(t *testing.T) {
	pool := testPool(6)

	assert.Nil(t, AssignProxy(151, pool))
	assert.Nil(t, AssignProxy(9999, pool))
}

func TestAssignProxyEdgeInputs(t *testing.T) {
	assert.Nil(t, AssignProxy(0, testPool(2)))
	assert.Nil(t, AssignProxy(-3, testPool(2)))
	assert.Nil(t, AssignProxy(1, nil))
}

func TestProxySlotURL(t *testing.T) {
	plain := &ProxySlot{Host: "10.0.0.1", Port: 3128}
	assert.Equal(t, "http://10.0.0.1:3128", plain.URL())

	authed := &ProxySlot{Host: "10.0.0.2", Port: 8080, Username: "u", Password: "p"}
	assert.Equal(t, "http://u:p@10.0.0.2:8080", authed.URL())

	var none *ProxySlot
	assert.Equal(t, "", none.URL())
}

func TestParseProxyPool(t *testing.T) {
	pool, err := ParseProxyPool("10.0.0.1:3128, 10.0.0.2:8080:user:pass")
	require.NoError(t, err)
	require.Len(t, pool, 2)

	assert.Equal(t, ProxySlot{Host: "10.0.0.1", Port: 3128}, pool[0])
	assert.Equal(t, ProxySlot{Host: "10.0.0.2", Port: 8080, Username: "user", Password: "pass"}, pool[1])
}

func TestParseProxyPoolEmpty(t *testing.T) {
	pool, err := ParseProxyPool("   ")
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestParseProxyPoolRejectsMalformed(t *testing.T) {
	_, err := ParseProxyPool("justahost")
	assert.Error(t, err)

	_, err = ParseProxyPool("host:notaport")
	assert.Error(t, err)
}
