package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ctorWith(name string, order bool, primary bool, params ...string) ConstructorInfo {
	c := ConstructorInfo{Name: name, HasOrderDirective: order, IsPrimary: primary}
	for _, p := range params {
		c.Params = append(c.Params, FactoryParam{Name: p})
	}
	return c
}

func TestSelectConstructorPrecedence(t *testing.T) {
	nt := &NinoType{
		Constructors: []ConstructorInfo{
			ctorWith("NewBig", false, false, "a", "b", "c"),
			ctorWith("NewPrimary", false, true, "a", "b"),
			ctorWith("NewOrdered", true, false, "a"),
		},
	}
	assert.Equal(t, "NewOrdered", nt.SelectConstructor().Name, "explicit ordering wins")

	nt.Constructors = nt.Constructors[:2]
	assert.Equal(t, "NewPrimary", nt.SelectConstructor().Name, "primary beats smallest")

	nt.Constructors = []ConstructorInfo{
		ctorWith("NewBig", false, false, "a", "b", "c"),
		ctorWith("NewSmall", false, false, "a"),
	}
	assert.Equal(t, "NewSmall", nt.SelectConstructor().Name, "fewest parameters")

	nt.Constructors = nil
	assert.True(t, nt.SelectConstructor().IsLiteral(), "no factory means literal construction")
}

func TestNinoTypeEqualIgnoresGraphFields(t *testing.T) {
	mk := func() *NinoType {
		return &NinoType{
			Info: TypeInfo{FullName: "game.A", TypeID: TypeIDOf("game.A")},
			Members: []NinoMember{
				{Name: "X", Type: TypeInfo{FullName: "int32", TypeID: TypeIDOf("int32"), Kind: KindInt32}},
			},
			ParentIDs: []uint32{TypeIDOf("game.Base")},
		}
	}
	a, b := mk(), mk()
	b.IsPolymorphic = true
	b.IsCircular = true
	b.HierarchyLevel = 3

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.CanonicalString(), b.CanonicalString())

	b.Members[0].IsUTF8 = true
	assert.False(t, a.Equal(b))
}

func TestCanonicalStringCoversOptions(t *testing.T) {
	a := &NinoType{Info: TypeInfo{FullName: "game.A"}, AutoCollect: true}
	b := &NinoType{Info: TypeInfo{FullName: "game.A"}, AutoCollect: false}
	assert.NotEqual(t, a.CanonicalString(), b.CanonicalString())
}
