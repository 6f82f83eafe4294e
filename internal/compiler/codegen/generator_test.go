package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nino-go/nino/internal/compiler/errors"
	"github.com/nino-go/nino/internal/compiler/graph"
	"github.com/nino-go/nino/internal/compiler/metadata"
)

const testPkgPath = "github.com/acme/game"

func namedInfo(name string) metadata.TypeInfo {
	full := testPkgPath + "." + name
	return metadata.TypeInfo{
		FullName:     full,
		TypeID:       metadata.TypeIDOf(full),
		DisplayName:  full,
		InstanceName: metadata.InstanceNameOf(full),
		Name:         name,
		PkgPath:      testPkgPath,
		PkgName:      "game",
		Kind:         metadata.KindStruct,
		IsValueType:  true,
		Exported:     true,
	}
}

func basicInfo(name string, kind metadata.Kind) metadata.TypeInfo {
	return metadata.TypeInfo{
		FullName:     name,
		TypeID:       metadata.TypeIDOf(name),
		DisplayName:  name,
		InstanceName: metadata.InstanceNameOf(name),
		Name:         name,
		Kind:         kind,
		IsValueType:  kind != metadata.KindString,
		IsUnmanaged:  kind != metadata.KindString,
		Exported:     true,
	}
}

func sliceInfo(elem metadata.TypeInfo) metadata.TypeInfo {
	full := "[]" + elem.FullName
	return metadata.TypeInfo{
		FullName:     full,
		TypeID:       metadata.TypeIDOf(full),
		DisplayName:  full,
		InstanceName: metadata.InstanceNameOf(full),
		Kind:         metadata.KindSlice,
		Elem:         &elem,
	}
}

func generateOne(t *testing.T, types []*metadata.NinoType, cfg Config) (string, *errors.Collector) {
	t.Helper()
	var diags errors.Collector
	g := graph.Build(types, &diags)
	gen := New(cfg, nil)
	artifacts, _, err := gen.Generate(context.Background(), g,
		[]PackageMeta{{Path: testPkgPath, Name: "game", Dir: "game"}}, &diags)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	return artifacts[0].Content, &diags
}

func TestEmitSimpleStruct(t *testing.T) {
	player := &metadata.NinoType{Info: namedInfo("Player"), DirectAttribute: true}
	player.Members = []metadata.NinoMember{
		{Name: "Health", Type: basicInfo("int32", metadata.KindInt32)},
		{Name: "Mana", Type: basicInfo("int32", metadata.KindInt32)},
		{Name: "Name", Type: basicInfo("string", metadata.KindString)},
	}

	out, diags := generateOne(t, []*metadata.NinoType{player}, Config{})
	assert.Empty(t, diags.All())

	assert.Contains(t, out, "// Code generated by nino. DO NOT EDIT.")
	assert.Contains(t, out, "package game")
	assert.Contains(t, out, "func SerializePlayer(v Player, w *runtime.Writer) error {")
	assert.Contains(t, out, "func DeserializePlayer(v *Player, r *runtime.Reader) error {")

	// Two adjacent unmanaged members collapse into one bulk copy.
	assert.Contains(t, out, "runtime.WriteUnmanaged(w, struct{ F0 int32; F1 int32 }{v.Health, v.Mana})")
	assert.Contains(t, out, "w.WriteString(v.Name)")

	// Registration glue.
	assert.Contains(t, out, `runtime.Register[Player]("github.com/acme/game.Player", ninoTypeIDPlayer, SerializePlayer, DeserializePlayer)`)
	assert.Contains(t, out, "func init() { NinoInit() }")
	assert.Contains(t, out, "var ninoInitOnce sync.Once")
}

func TestEmitUTF8String(t *testing.T) {
	save := &metadata.NinoType{Info: namedInfo("Save"), DirectAttribute: true}
	save.Members = []metadata.NinoMember{
		{Name: "Label", Type: basicInfo("string", metadata.KindString), IsUTF8: true},
	}

	out, _ := generateOne(t, []*metadata.NinoType{save}, Config{})
	assert.Contains(t, out, "w.WriteStringUTF8(v.Label)")
	assert.Contains(t, out, "r.ReadStringUTF8()")
}

func TestBulkRunCapsAtSixteen(t *testing.T) {
	big := &metadata.NinoType{Info: namedInfo("Big"), DirectAttribute: true}
	for i := 0; i < 18; i++ {
		big.Members = append(big.Members, metadata.NinoMember{
			Name: "F" + string(rune('A'+i)),
			Type: basicInfo("int64", metadata.KindInt64),
		})
	}

	out, _ := generateOne(t, []*metadata.NinoType{big}, Config{})
	// 18 members split into a 16-run and a 2-run.
	assert.Contains(t, out, "F15 int64 }")
	assert.NotContains(t, out, "F16 int64 }")
	assert.Contains(t, out, "struct{ F0 int64; F1 int64 }{v.FQ, v.FR}")
}

func TestHierarchyDispatch(t *testing.T) {
	entityFull := testPkgPath + ".Entity"
	entity := &metadata.NinoType{Info: namedInfo("Entity"), DirectAttribute: true}
	entity.Info.Kind = metadata.KindInterface
	entity.Info.IsPolymorphic = true
	entity.Info.IsValueType = false

	monster := &metadata.NinoType{Info: namedInfo("Monster"), DirectAttribute: true}
	monster.ParentIDs = []uint32{metadata.TypeIDOf(entityFull)}
	monster.ParentNames = []string{entityFull}
	monster.Members = []metadata.NinoMember{
		{Name: "Fangs", Type: basicInfo("int32", metadata.KindInt32)},
	}

	boss := &metadata.NinoType{Info: namedInfo("Boss"), DirectAttribute: true}
	boss.ParentIDs = []uint32{monster.Info.TypeID}
	boss.ParentNames = []string{monster.Info.FullName}
	boss.Members = []metadata.NinoMember{
		{Name: "Phase", Type: basicInfo("int32", metadata.KindInt32)},
	}

	out, diags := generateOne(t, []*metadata.NinoType{entity, monster, boss}, Config{})
	assert.Empty(t, diags.All())

	// Interface dispatch pair with null sentinel and unknown-id guard.
	assert.Contains(t, out, "func SerializeEntity(v Entity, w *runtime.Writer) error {")
	assert.Contains(t, out, "case nil:")
	assert.Contains(t, out, "w.WriteNull()")
	assert.Contains(t, out, "case runtime.NullTypeID:")
	assert.Contains(t, out, `runtime.NewInvalidPayload("unknown type id 0x%08x for Entity", id)`)

	// Deepest-first: Boss's case appears before Monster's.
	bossCase := strings.Index(out, "case *Boss:")
	monsterCase := strings.Index(out, "case *Monster:")
	require.GreaterOrEqual(t, bossCase, 0)
	require.GreaterOrEqual(t, monsterCase, 0)
	assert.Less(t, bossCase, monsterCase)

	// Boss embeds Monster: the serializer writes the base first.
	assert.Contains(t, out, "if err := SerializeMonster(v.Monster, w); err != nil {")

	// Polymorphic structs get the id-prefixed pair and optimal entry.
	assert.Contains(t, out, "func SerializeMonsterPoly(v Monster, w *runtime.Writer) error {")
	assert.Contains(t, out, "runtime.RegisterOptimal[Monster]")

	// Parent-to-child records, including the transitive ancestor.
	assert.Contains(t, out, "runtime.RecordSubType(ninoTypeIDEntity, ninoTypeIDMonster)")
	assert.Contains(t, out, "runtime.RecordSubType(ninoTypeIDEntity, ninoTypeIDBoss)")
	assert.Contains(t, out, "runtime.RecordSubType(ninoTypeIDMonster, ninoTypeIDBoss)")
}

func TestWeakVersionTolerance(t *testing.T) {
	save := &metadata.NinoType{Info: namedInfo("Save"), DirectAttribute: true}
	save.Members = []metadata.NinoMember{
		{Name: "Slot", Type: basicInfo("int32", metadata.KindInt32)},
		{Name: "Label", Type: basicInfo("string", metadata.KindString)},
	}

	out, _ := generateOne(t, []*metadata.NinoType{save}, Config{WeakVersionTolerance: true})

	// Managed members get the reserve/backpatch envelope.
	assert.Contains(t, out, ":= w.Reserve4()")
	assert.Contains(t, out, "w.PatchLength(")
	// Unmanaged members do not.
	assert.Contains(t, out, "runtime.WriteUnmanaged(w, v.Slot)")

	// Reads tolerate missing trailing members.
	assert.Contains(t, out, "if r.Eof() {")
	assert.Contains(t, out, "r.ReadFrameLength()")
}

func TestSliceAndMapBuiltins(t *testing.T) {
	intInfo := basicInfo("int32", metadata.KindInt32)
	strInfo := basicInfo("string", metadata.KindString)
	mapInfo := metadata.TypeInfo{
		FullName:     "map[int32]int32",
		TypeID:       metadata.TypeIDOf("map[int32]int32"),
		DisplayName:  "map[int32]int32",
		InstanceName: metadata.InstanceNameOf("map[int32]int32"),
		Kind:         metadata.KindMap,
		Key:          &intInfo,
		Elem:         &intInfo,
	}

	world := &metadata.NinoType{Info: namedInfo("World"), DirectAttribute: true}
	world.Members = []metadata.NinoMember{
		{Name: "Tags", Type: sliceInfo(strInfo)},
		{Name: "Scores", Type: mapInfo},
	}

	out, diags := generateOne(t, []*metadata.NinoType{world}, Config{})
	assert.Empty(t, diags.All())

	// Slice helper with null sentinel for nil.
	assert.Contains(t, out, "func ninoSer___string(v []string, w *runtime.Writer) error {")
	assert.Contains(t, out, "w.WriteNullCollection()")

	// Unmanaged key/value pairs bulk through a packed struct.
	assert.Contains(t, out, "runtime.WriteUnmanaged(w, struct{ K int32; V int32 }{nino__k, nino__v})")
}

func TestUnmanagedSliceFastPath(t *testing.T) {
	world := &metadata.NinoType{Info: namedInfo("World"), DirectAttribute: true}
	world.Members = []metadata.NinoMember{
		{Name: "Heights", Type: sliceInfo(basicInfo("float32", metadata.KindFloat32))},
	}

	out, _ := generateOne(t, []*metadata.NinoType{world}, Config{})
	assert.Contains(t, out, "runtime.WriteUnmanagedSlice(w, v)")
	assert.Contains(t, out, "runtime.ReadUnmanagedSlice[float32](r, nino__n)")
}

func TestPointerMemberNullable(t *testing.T) {
	intInfo := basicInfo("int32", metadata.KindInt32)
	ptr := metadata.TypeInfo{
		FullName:     "*int32",
		TypeID:       metadata.TypeIDOf("*int32"),
		DisplayName:  "*int32",
		InstanceName: metadata.InstanceNameOf("*int32"),
		Kind:         metadata.KindPointer,
		Elem:         &intInfo,
	}

	opt := &metadata.NinoType{Info: namedInfo("Options"), DirectAttribute: true}
	opt.Members = []metadata.NinoMember{{Name: "Limit", Type: ptr}}

	out, _ := generateOne(t, []*metadata.NinoType{opt}, Config{})
	assert.Contains(t, out, "w.WriteBool(false)")
	assert.Contains(t, out, "w.WriteBool(true)")
	assert.Contains(t, out, "runtime.WriteUnmanaged(w, *v.Limit)")
}

func TestMissingMemberDiagnostic(t *testing.T) {
	foreign := metadata.TypeInfo{
		FullName:    "github.com/thirdparty/lib.Opaque",
		TypeID:      metadata.TypeIDOf("github.com/thirdparty/lib.Opaque"),
		DisplayName: "github.com/thirdparty/lib.Opaque",
		Name:        "Opaque",
		PkgPath:     "github.com/thirdparty/lib",
		PkgName:     "lib",
		Kind:        metadata.KindStruct,
	}

	holder := &metadata.NinoType{Info: namedInfo("Holder"), DirectAttribute: true}
	holder.Members = []metadata.NinoMember{{Name: "Data", Type: foreign}}

	var diags errors.Collector
	g := graph.Build([]*metadata.NinoType{holder}, &diags)
	gen := New(Config{}, nil)
	artifacts, _, err := gen.Generate(context.Background(), g,
		[]PackageMeta{{Path: testPkgPath, Name: "game", Dir: "game"}}, &diags)
	require.NoError(t, err)

	require.Len(t, diags.All(), 1)
	d := diags.All()[0]
	assert.Equal(t, errors.ErrMissingMember, d.Code)
	assert.Equal(t, "Data", d.MemberName)

	// The artifact exists but carries no serializer for the type.
	require.Len(t, artifacts, 1)
	assert.NotContains(t, artifacts[0].Content, "func SerializeHolder")
}

func TestFactoryConstruction(t *testing.T) {
	account := &metadata.NinoType{Info: namedInfo("Account"), DirectAttribute: true}
	account.Members = []metadata.NinoMember{
		{Name: "Owner", Type: basicInfo("string", metadata.KindString), IsCtorParameter: true},
		{Name: "Balance", Type: basicInfo("int64", metadata.KindInt64)},
	}
	account.Constructors = []metadata.ConstructorInfo{{
		Name:           "NewAccount",
		Params:         []metadata.FactoryParam{{Name: "owner", Type: basicInfo("string", metadata.KindString)}},
		ReturnsPointer: true,
	}}

	out, diags := generateOne(t, []*metadata.NinoType{account}, Config{})
	assert.Empty(t, diags.All())

	assert.Contains(t, out, "var nino__mOwner string")
	assert.Contains(t, out, "*v = *NewAccount(nino__mOwner)")
	assert.Contains(t, out, "v.Balance = nino__mBalance")
	assert.NotContains(t, out, "v.Owner = nino__mOwner")
}

func TestEngineHooksRegistration(t *testing.T) {
	player := &metadata.NinoType{Info: namedInfo("Player"), DirectAttribute: true}
	player.Members = []metadata.NinoMember{
		{Name: "Health", Type: basicInfo("int32", metadata.KindInt32)},
	}

	var diags errors.Collector
	g := graph.Build([]*metadata.NinoType{player}, &diags)
	gen := New(Config{}, nil)
	artifacts, _, err := gen.Generate(context.Background(), g,
		[]PackageMeta{{Path: testPkgPath, Name: "game", Dir: "game", IsEngine: true}}, &diags)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Contains(t, artifacts[0].Content, "func init() { runtime.RegisterLoadHook(NinoInit) }")
}
