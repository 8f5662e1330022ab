// Package devices models the catalog of devices with LineageOS builds.
package devices

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vnykmshr/lineagekit/internal/catalog"
	"github.com/vnykmshr/lineagekit/pkg/version"
)

// SoC describes a device's system on chip.
type SoC struct {
	Codename string `json:"codename"`
	Vendor   string `json:"vendor"`
	Model    string `json:"model"`
}

// Display describes a device's panel.
type Display struct {
	Height      int     `json:"height"`
	Width       int     `json:"width"`
	RefreshRate float64 `json:"refreshRate"`
}

// Device is an entry of the devices catalog.
type Device struct {
	Codename     string   `json:"codename"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	ReleaseDate  string   `json:"releaseDate"`
	SoC          SoC      `json:"soc"`
	Display      Display  `json:"display"`
	Official     bool     `json:"official"`
	Versions     []string `json:"versions,omitempty"`
}

// Mirrors holds the image and download bases for official and unofficial
// devices.
type Mirrors struct {
	ImagesBaseURL            string
	OfficialImagesBaseURL    string
	DownloadsBaseURL         string
	OfficialDownloadsBaseURL string
}

// DefaultMirrors returns the upstream LineageOS and fallback mirrors.
func DefaultMirrors() Mirrors {
	return Mirrors{
		ImagesBaseURL:            "assets/downloads/images",
		OfficialImagesBaseURL:    "https://wiki.lineageos.org/images/devices",
		DownloadsBaseURL:         "https://lineage.sebaubuntu.dev",
		OfficialDownloadsBaseURL: "https://download.lineageos.org",
	}
}

// ImageURL is the PNG picture of d.
func (m Mirrors) ImageURL(d Device) string {
	base := m.ImagesBaseURL
	if d.Official {
		base = m.OfficialImagesBaseURL
	}
	return fmt.Sprintf("%s/%s.png", strings.TrimSuffix(base, "/"), d.Codename)
}

// DownloadURL is the page listing builds for d.
func (m Mirrors) DownloadURL(d Device) string {
	base := m.DownloadsBaseURL
	if d.Official {
		base = m.OfficialDownloadsBaseURL
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), d.Codename)
}

// LatestVersion returns the newest valid entry of d.Versions.
func (d Device) LatestVersion() (string, bool) {
	return version.Latest(d.Versions)
}

// Supports reports whether d lists a version equal to v.
func (d Device) Supports(v string) bool {
	for _, dv := range d.Versions {
		if version.Valid(dv) && version.Compare(dv, v) == 0 {
			return true
		}
	}
	return false
}

// Summary renders d on a few lines of plain text.
func (d Device) Summary(m Mirrors) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", d.Manufacturer, d.Model)
	fmt.Fprintf(&b, "Codename: %s\n", d.Codename)
	fmt.Fprintf(&b, "Release date: %s\n", d.ReleaseDate)
	fmt.Fprintf(&b, "CPU: %s %s (%s)\n", d.SoC.Vendor, d.SoC.Model, d.SoC.Codename)
	fmt.Fprintf(&b, "Display: %dx%d@%shz\n", d.Display.Height, d.Display.Width, formatRate(d.Display.RefreshRate))
	if latest, ok := d.LatestVersion(); ok {
		fmt.Fprintf(&b, "Latest version: %s\n", latest)
	}
	fmt.Fprintf(&b, "Download: %s\n", m.DownloadURL(d))
	return b.String()
}

func formatRate(r float64) string {
	if r == float64(int(r)) {
		return fmt.Sprintf("%d", int(r))
	}
	return fmt.Sprintf("%g", r)
}

// Catalog is a decoded devices list in document order.
type Catalog []Device

// Find returns the device with codename.
func (c Catalog) Find(codename string) (Device, bool) {
	for _, d := range c {
		if d.Codename == codename {
			return d, true
		}
	}
	return Device{}, false
}

// Official returns the officially supported devices.
func (c Catalog) Official() Catalog {
	out := make(Catalog, 0, len(c))
	for _, d := range c {
		if d.Official {
			out = append(out, d)
		}
	}
	return out
}

// SortByLatestVersion orders devices by their newest version, newest first.
// Devices without a valid version come last; ties keep document order.
func (c Catalog) SortByLatestVersion() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)

	latest := make(map[string]string, len(out))
	for _, d := range out {
		latest[d.Codename], _ = d.LatestVersion()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return version.Compare(latest[out[i].Codename], latest[out[j].Codename]) > 0
	})
	return out
}

const devicesDocument = "devices.json"

// Decode parses the devices catalog. codename, model, soc and display are
// required; an empty array is a valid, empty catalog.
func Decode(data []byte) (Catalog, error) {
	objs, err := catalog.Array(devicesDocument, data)
	if err != nil {
		return nil, err
	}

	out := make(Catalog, 0, len(objs))
	for _, o := range objs {
		d, err := decodeDevice(o)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func decodeDevice(o catalog.Object) (Device, error) {
	var (
		d   Device
		err error
	)
	if d.Codename, err = o.String("codename"); err != nil {
		return Device{}, err
	}
	if d.Manufacturer, err = o.OptionalString("manufacturer"); err != nil {
		return Device{}, err
	}
	if d.Model, err = o.String("model"); err != nil {
		return Device{}, err
	}
	if d.ReleaseDate, err = o.OptionalString("releaseDate"); err != nil {
		return Device{}, err
	}
	if d.Official, err = o.OptionalBool("official"); err != nil {
		return Device{}, err
	}
	if d.Versions, err = o.OptionalStrings("versions"); err != nil {
		return Device{}, err
	}

	soc, err := o.Object("soc")
	if err != nil {
		return Device{}, err
	}
	if d.SoC.Codename, err = soc.OptionalString("codename"); err != nil {
		return Device{}, err
	}
	if d.SoC.Vendor, err = soc.OptionalString("vendor"); err != nil {
		return Device{}, err
	}
	if d.SoC.Model, err = soc.OptionalString("model"); err != nil {
		return Device{}, err
	}

	display, err := o.Object("display")
	if err != nil {
		return Device{}, err
	}
	if d.Display.Height, err = display.Int("height"); err != nil {
		return Device{}, err
	}
	if d.Display.Width, err = display.Int("width"); err != nil {
		return Device{}, err
	}
	if display.Has("refreshRate") {
		if d.Display.RefreshRate, err = display.Float("refreshRate"); err != nil {
			return Device{}, err
		}
	}
	return d, nil
}

// Load fetches and decodes the devices catalog at location.
func Load(ctx context.Context, f *catalog.Fetcher, location string) (Catalog, error) {
	data, err := f.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
