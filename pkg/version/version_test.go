package version

import (
	"errors"
	"testing"

	"github.com/vnykmshr/lineagekit/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"lineage-22.2", "22.2", false},
		{"lineage-22", "22.0", false},
		{"22.2", "22.2", false},
		{"22", "22.0", false},
		{"  21.0\n", "21.0", false},
		{"1.12", "1.12", false},
		{"", "", true},
		{"lineage-", "", true},
		{"22.2.1", "", true},
		{"v22.2", "", true},
		{"twenty", "", true},
		{"22.", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				testutil.AssertError(t, err)
				testutil.AssertEqual(t, errors.Is(err, ErrInvalidVersion), true)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"prefix ignored", "lineage-22.2", "22.2", 0},
		{"missing minor", "22", "22.0", 0},
		{"older major", "21.0", "22.0", -1},
		{"newer major", "23", "lineage-22.2", 1},
		{"minor numeric", "1.12", "1.2", 1},
		{"older minor", "22.1", "22.2", -1},
		{"invalid is older", "", "1.0", -1},
		{"valid is newer", "1.0", "garbage", 1},
		{"both invalid", "x", "", 0},
		{"whitespace", " lineage-20.0 ", "20", 0},
		{"leading zero minor", "22.05", "22.5", 0},
		{"leading zero newer", "22.05", "1.0", 1},
		{"leading zero major", "lineage-07", "7", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, Compare(tt.a, tt.b), tt.want)
			testutil.AssertEqual(t, Compare(tt.b, tt.a), -tt.want)
		})
	}
}

func TestParse(t *testing.T) {
	v, err := Parse("lineage-21")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.Major(), uint64(21))
	testutil.AssertEqual(t, v.Minor(), uint64(0))

	_, err = Parse("21.x")
	testutil.AssertError(t, err)

	v, err = Parse("22.05")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v.Minor(), uint64(5))
	testutil.AssertEqual(t, Valid("22.05"), true)

	_, err = Parse("99999999999999999999.0")
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, errors.Is(err, ErrInvalidVersion), true)
}

func TestSort(t *testing.T) {
	versions := []string{"lineage-22.2", "20", "bogus", "1.12", "1.2", "lineage-21.0"}
	Sort(versions)
	testutil.AssertSliceEqual(t, versions, []string{"bogus", "1.2", "1.12", "20", "lineage-21.0", "lineage-22.2"})
}

func TestLatest(t *testing.T) {
	latest, ok := Latest([]string{"lineage-20.0", "lineage-22.1", "nope", "21"})
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, latest, "lineage-22.1")

	_, ok = Latest([]string{"nope", ""})
	testutil.AssertEqual(t, ok, false)

	_, ok = Latest(nil)
	testutil.AssertEqual(t, ok, false)
}
