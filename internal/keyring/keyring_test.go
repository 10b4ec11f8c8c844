package keyring

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitstamp-go/pkg/core"
)

func testKeys() []*APIKey {
	return []*APIKey{
		{ID: "a", Key: "key-aaaaaaaa", Secret: "secret-a", CustomerID: "100"},
		{ID: "b", Key: "key-bbbbbbbb", Secret: "secret-b", CustomerID: "200"},
		{ID: "c", Key: "key-cccccccc", Secret: "secret-c", CustomerID: "300"},
	}
}

func TestNewKeyRing_CopiesInput(t *testing.T) {
	keys := testKeys()
	kr := NewKeyRing(keys, RotationNone)

	keys[0].Key = "mutated"

	current := kr.Current()
	require.NotNil(t, current)
	assert.Equal(t, "key-aaaaaaaa", current.Key)
	assert.Equal(t, 3, kr.Len())
}

func TestFromCredentials(t *testing.T) {
	kr := FromCredentials(core.Credentials{APIKey: "k", SecretKey: "s", CustomerID: "42"})

	key, err := kr.Acquire()
	require.NoError(t, err)
	assert.Equal(t, core.Credentials{APIKey: "k", SecretKey: "s", CustomerID: "42"}, key.Credentials())
}

func TestAcquire_RotationNone(t *testing.T) {
	kr := NewKeyRing(testKeys(), RotationNone)

	for i := 0; i < 3; i++ {
		key, err := kr.Acquire()
		require.NoError(t, err)
		assert.Equal(t, "a", key.ID)
		assert.False(t, key.LastUsed.IsZero())
	}
}

func TestAcquire_RoundRobin(t *testing.T) {
	kr := NewKeyRing(testKeys(), RotationRoundRobin)

	var ids []string
	for i := 0; i < 4; i++ {
		key, err := kr.Acquire()
		require.NoError(t, err)
		ids = append(ids, key.ID)
	}

	assert.Equal(t, []string{"a", "b", "c", "a"}, ids)
}

func TestAcquire_SkipsDisabled(t *testing.T) {
	kr := NewKeyRing(testKeys(), RotationNone)
	kr.Disable("a")

	key, err := kr.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "b", key.ID)

	kr.Disable("b")
	kr.Disable("c")
	_, err = kr.Acquire()
	assert.ErrorIs(t, err, core.ErrNoAPIKey)
	assert.Nil(t, kr.Current())

	kr.Enable("c")
	key, err = kr.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "c", key.ID)
}

func TestAcquire_Empty(t *testing.T) {
	kr := NewKeyRing(nil, RotationRoundRobin)

	_, err := kr.Acquire()
	assert.ErrorIs(t, err, core.ErrNoAPIKey)
	assert.Nil(t, kr.Current())
}

func TestOnError_RotatesUnderRotationOnError(t *testing.T) {
	kr := NewKeyRing(testKeys(), RotationOnError)

	key, err := kr.Acquire()
	require.NoError(t, err)
	kr.OnError(key.ID, errors.New("boom"))

	next, err := kr.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "b", next.ID)
	assert.Equal(t, 1, key.ErrorCount)

	kr.Enable("a")
	assert.Equal(t, 0, key.ErrorCount)
}

func TestOnError_NoRotationByDefault(t *testing.T) {
	kr := NewKeyRing(testKeys(), RotationNone)

	kr.OnError("a", errors.New("boom"))
	kr.OnError("unknown", errors.New("boom"))

	key, err := kr.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "a", key.ID)
	assert.Equal(t, 1, key.ErrorCount)
}

func TestAddRemove(t *testing.T) {
	kr := NewKeyRing(testKeys()[:1], RotationNone)

	kr.Add(&APIKey{ID: "b", Key: "kb", Secret: "sb", Disabled: true})
	kr.Add(&APIKey{ID: "b", Key: "dup"})
	assert.Equal(t, 2, kr.Len())

	kr.Remove("a")
	assert.Equal(t, 1, kr.Len())

	key, err := kr.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "kb", key.Key)
}

func TestAPIKey_NoncesArePerKey(t *testing.T) {
	kr := NewKeyRing(testKeys(), RotationRoundRobin)

	a, err := kr.Acquire()
	require.NoError(t, err)
	b, err := kr.Acquire()
	require.NoError(t, err)

	first, err := strconv.ParseUint(a.NextNonce(), 10, 64)
	require.NoError(t, err)
	second, err := strconv.ParseUint(a.NextNonce(), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	assert.NotEmpty(t, b.NextNonce())
	assert.NotSame(t, a.nonces, b.nonces)
}

func TestAPIKey_StringMasksKey(t *testing.T) {
	key := &APIKey{ID: "a", Key: "abcdefghijkl", Secret: "topsecret", CustomerID: "1"}

	s := key.String()
	assert.Equal(t, "APIKey{ID:a, Key:abcd****ijkl, CustomerID:1}", s)
	assert.NotContains(t, s, "topsecret")
	assert.Equal(t, "****", maskKey("short"))
}
