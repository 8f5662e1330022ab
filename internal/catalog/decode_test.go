package catalog

import (
	"errors"
	"testing"

	"github.com/vnykmshr/lineagekit/internal/testutil"
	lkerrors "github.com/vnykmshr/lineagekit/pkg/common/errors"
)

func decodeErr(t *testing.T, err error) *lkerrors.DecodeError {
	t.Helper()
	var derr *lkerrors.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !errors.Is(err, lkerrors.ErrDecode) {
		t.Fatalf("DecodeError should match ErrDecode")
	}
	return derr
}

func TestArray(t *testing.T) {
	objs, err := Array("apps.json", []byte(`[{"name":"Aperture"},{"name":"Etar"}]`))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(objs), 2)
	testutil.AssertEqual(t, objs[1].Index(), 1)

	objs, err = Array("apps.json", []byte(`[]`))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(objs), 0)

	derr := decodeErr(t, func() error { _, err := Array("apps.json", []byte(`{"name":"Aperture"}`)); return err }())
	testutil.AssertEqual(t, derr.Index, -1)

	derr = decodeErr(t, func() error { _, err := Array("apps.json", []byte(`[{}, 3]`)); return err }())
	testutil.AssertEqual(t, derr.Index, 1)

	derr = decodeErr(t, func() error { _, err := Array("apps.json", []byte(`[null]`)); return err }())
	testutil.AssertEqual(t, derr.Index, 0)
}

func TestObjectFields(t *testing.T) {
	objs, err := Array("devices.json", []byte(`[{
		"codename": "lemonadep",
		"official": true,
		"versions": ["lineage-21.0", "lineage-22.1"],
		"soc": {"codename": "lahaina"},
		"display": {"height": 2400, "refreshRate": 90.5},
		"model": null
	}]`))
	testutil.AssertNoError(t, err)
	o := objs[0]

	s, err := o.String("codename")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s, "lemonadep")

	s, err = o.OptionalString("manufacturer")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s, "")

	testutil.AssertEqual(t, o.Has("model"), false)
	derr := decodeErr(t, func() error { _, err := o.String("model"); return err }())
	testutil.AssertEqual(t, derr.Field, "model")
	testutil.AssertEqual(t, derr.Reason, "missing")

	b, err := o.OptionalBool("official")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, b, true)

	vs, err := o.OptionalStrings("versions")
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, vs, []string{"lineage-21.0", "lineage-22.1"})

	soc, err := o.Object("soc")
	testutil.AssertNoError(t, err)
	derr = decodeErr(t, func() error { _, err := soc.String("vendor"); return err }())
	testutil.AssertEqual(t, derr.Field, "soc.vendor")
	testutil.AssertEqual(t, derr.Index, 0)
	testutil.AssertEqual(t, derr.Error(), "devices.json[0].soc.vendor: missing")

	display, err := o.Object("display")
	testutil.AssertNoError(t, err)
	h, err := display.Int("height")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, h, 2400)
	rate, err := display.Float("refreshRate")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, rate, 90.5)

	derr = decodeErr(t, func() error { _, err := display.Int("refreshRate"); return err }())
	testutil.AssertEqual(t, derr.Reason, "expected an integer")

	derr = decodeErr(t, func() error { _, err := o.String("official"); return err }())
	testutil.AssertEqual(t, derr.Reason, "expected a string")

	derr = decodeErr(t, func() error { _, err := o.Object("codename"); return err }())
	testutil.AssertEqual(t, derr.Reason, "expected an object")
}

func TestSingle(t *testing.T) {
	o, err := Single("cpu", []byte(`{"brand":"Ryzen 7","cache":{"l2":4194304},"flags":["sse","avx"]}`))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, o.Index(), -1)

	derr := decodeErr(t, func() error { _, err := o.String("vendor"); return err }())
	testutil.AssertEqual(t, derr.Error(), "cpu.vendor: missing")

	derr = decodeErr(t, func() error { _, err := Single("cpu", []byte(`[1]`)); return err }())
	testutil.AssertEqual(t, derr.Index, -1)
	testutil.AssertEqual(t, derr.Reason, "expected a JSON object")
}

func TestObjectValue(t *testing.T) {
	o, err := Single("cpu", []byte(`{
		"brand": "Ryzen 7",
		"cores": 16,
		"cache": {"l2": 4194304, "l3": null},
		"flags": ["sse", "avx"],
		"socket": "AM4"
	}`))
	testutil.AssertNoError(t, err)

	v, err := o.Value("brand")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.(string), "Ryzen 7")

	v, err = o.Value("cache.l2")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.(float64), 4194304.0)

	for _, path := range []string{"cache.l3", "cache.l1d", "temperature.main", "governor"} {
		v, err = o.Value(path)
		testutil.AssertNoError(t, err)
		if v != nil {
			t.Fatalf("Value(%q) = %v, want nil", path, v)
		}
	}

	v, err = o.Value("flags")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(v.([]any)), 2)

	derr := decodeErr(t, func() error { _, err := o.Value("socket.id"); return err }())
	testutil.AssertEqual(t, derr.Field, "socket")
}

func TestObjects(t *testing.T) {
	o, err := Single("memory", []byte(`{"memLayout":[{"size":8},{"size":16}],"bad":[{"size":1},2]}`))
	testutil.AssertNoError(t, err)

	layouts, err := o.Objects("memLayout")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(layouts), 2)
	size, err := layouts[1].Int("size")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, size, 16)

	derr := decodeErr(t, func() error { _, err := layouts[0].String("type"); return err }())
	testutil.AssertEqual(t, derr.Field, "memLayout[0].type")

	none, err := o.Objects("batteries")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(none), 0)

	derr = decodeErr(t, func() error { _, err := o.Objects("bad"); return err }())
	testutil.AssertEqual(t, derr.Field, "bad[1]")
}
