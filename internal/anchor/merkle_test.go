package anchor

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerkleRootSingleLeaf(t *testing.T) {
	id := "deadbeef"
	expected := hashHex([]byte(id))
	require.Equal(t, expected, MerkleRoot([]string{id}))
}

func TestMerkleRootTwoLeavesHashesHexStringsNotRawBytes(t *testing.T) {
	a, b := "aa", "bb"
	leafA := hashHex([]byte(a))
	leafB := hashHex([]byte(b))
	// the concatenation must be of the hex STRINGS, not the underlying bytes
	want := hashHex([]byte(leafA + leafB))
	require.Equal(t, want, MerkleRoot([]string{a, b}))
}

func TestMerkleRootOddCountDuplicatesLast(t *testing.T) {
	ids := []string{"a", "b", "c"}
	l1 := hashHex([]byte("a"))
	l2 := hashHex([]byte("b"))
	l3 := hashHex([]byte("c"))
	n1 := hashHex([]byte(l1 + l2))
	n2 := hashHex([]byte(l3 + l3))
	want := hashHex([]byte(n1 + n2))
	require.Equal(t, want, MerkleRoot(ids))
}

func TestMerkleRootEmpty(t *testing.T) {
	require.Equal(t, "", MerkleRoot(nil))
}

func TestMerkleRootFixedVector(t *testing.T) {
	ids := []string{"proof-1", "proof-2", "proof-3", "proof-4"}
	root := MerkleRoot(ids)
	require.Len(t, root, 64)
	require.Equal(t, "cf796df8c089a50208f1d448eb0db65a3048e033c2df21f4eae6c12cd4e334c2", root)

	sum := sha256.Sum256([]byte("proof-1"))
	require.Equal(t, hex.EncodeToString(sum[:]), hashHex([]byte("proof-1")))
}
