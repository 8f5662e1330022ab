package status

import (
	"fmt"
	"strings"

	"github.com/vnykmshr/lineagekit/internal/catalog"
)

type section struct {
	name  string
	build func(data []byte) ([]Tab, error)
}

var sections = []section{
	{"system", systemTabs},
	{"cpu", cpuTabs},
	{"memory", memoryTabs},
	{"batteries", batteryTabs},
	{"gpus", gpuTabs},
	{"os", osTabs},
}

type valueFunc func(o catalog.Object) (string, error)

type entry struct {
	key   string
	value valueFunc
}

// tab formats entries against o.
func tab(o catalog.Object, title string, entries []entry) (Tab, error) {
	t := Tab{Title: title, Fields: make([]Field, 0, len(entries))}
	for _, e := range entries {
		v, err := e.value(o)
		if err != nil {
			return Tab{}, err
		}
		t.Fields = append(t.Fields, Field{Key: e.key, Value: v})
	}
	return t, nil
}

func text(path string) valueFunc {
	return func(o catalog.Object) (string, error) {
		v, err := o.Value(path)
		if err != nil {
			return "", err
		}
		return FormatValue(v), nil
	}
}

// unit appends suffix to a present value, e.g. unit("voltage", " V").
func unit(path, suffix string) valueFunc {
	return func(o catalog.Object) (string, error) {
		v, err := o.Value(path)
		if err != nil || v == nil {
			return Unknown, err
		}
		return scalar(v) + suffix, nil
	}
}

// each appends suffix to every element of an array value.
func each(path, suffix string) valueFunc {
	return func(o catalog.Object) (string, error) {
		v, err := o.Value(path)
		if err != nil {
			return "", err
		}
		list, ok := v.([]any)
		if !ok {
			return FormatValue(v), nil
		}
		out := make([]any, len(list))
		for i, e := range list {
			out[i] = scalar(e) + suffix
		}
		return FormatValue(out), nil
	}
}

func size(path string) valueFunc {
	return func(o catalog.Object) (string, error) {
		v, err := o.Value(path)
		if err != nil {
			return "", err
		}
		n, ok := v.(float64)
		if !ok {
			return FormatValue(v), nil
		}
		return HumanFileSize(n), nil
	}
}

// flag renders a possibly missing boolean as Yes or No.
func flag(path string) valueFunc {
	return func(o catalog.Object) (string, error) {
		v, err := o.Value(path)
		if err != nil {
			return "", err
		}
		b, _ := v.(bool)
		return FormatValue(b), nil
	}
}

// capacity joins a battery quantity with the unit the battery reports.
func capacity(path string) valueFunc {
	return func(o catalog.Object) (string, error) {
		v, err := o.Value(path)
		if err != nil || v == nil {
			return Unknown, err
		}
		u, err := o.Value("capacityUnit")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(scalar(v) + " " + scalar(u)), nil
	}
}

func systemTabs(data []byte) ([]Tab, error) {
	o, err := catalog.Single("system", data)
	if err != nil {
		return nil, err
	}
	return tabs(o,
		titled{"System", []entry{
			{"Manufacturer", text("system.manufacturer")},
			{"Model", text("system.model")},
			{"Version", text("system.version")},
			{"SKU", text("system.sku")},
			{"Virtual", text("system.virtual")},
			{"Virtual host", text("system.virtualHost")},
		}},
		titled{"BIOS", []entry{
			{"Vendor", text("bios.vendor")},
			{"Version", text("bios.version")},
			{"Revision", text("bios.revision")},
			{"Language", text("bios.language")},
			{"Features", text("bios.features")},
		}},
		titled{"Baseboard", []entry{
			{"Manufacturer", text("baseboard.manufacturer")},
			{"Model", text("baseboard.model")},
			{"Version", text("baseboard.version")},
			{"Max memory", text("baseboard.memMax")},
			{"Memory slots", text("baseboard.memSlots")},
		}},
		titled{"Chassis", []entry{
			{"Manufacturer", text("chassis.manufacturer")},
			{"Model", text("chassis.model")},
			{"Type", text("chassis.type")},
			{"Version", text("chassis.version")},
			{"SKU", text("chassis.sku")},
		}},
	)
}

func cpuTabs(data []byte) ([]Tab, error) {
	o, err := catalog.Single("cpu", data)
	if err != nil {
		return nil, err
	}
	return tabs(o,
		titled{"CPU", []entry{
			{"Manufacturer", text("manufacturer")},
			{"Brand", text("brand")},
			{"Vendor", text("vendor")},
			{"Family", text("family")},
			{"Model", text("model")},
			{"Stepping", text("stepping")},
			{"Revision", text("revision")},
			{"Voltage", unit("voltage", " V")},
			{"Speed", unit("speed", " GHz")},
			{"Minimum speed", unit("speedMin", " GHz")},
			{"Maximum speed", unit("speedMax", " GHz")},
			{"Governor", text("governor")},
			{"Cores", text("cores")},
			{"Physical cores", text("physicalCores")},
			{"Performance cores", text("performanceCores")},
			{"Efficiency cores", text("efficiencyCores")},
			{"Processors", text("processors")},
			{"Socket", text("socket")},
			{"Flags", text("flags")},
			{"Virtualization", text("virtualization")},
		}},
		titled{"CPU cache", []entry{
			{"L1D cache", size("cache.l1d")},
			{"L1I cache", size("cache.l1i")},
			{"L2 cache", size("cache.l2")},
			{"L3 cache", size("cache.l3")},
		}},
		titled{"CPU current speed", []entry{
			{"Current minimum speed", unit("currentSpeed.min", " GHz")},
			{"Current maximum speed", unit("currentSpeed.max", " GHz")},
			{"Current average speed", unit("currentSpeed.avg", " GHz")},
			{"Currently enabled cores speed", each("currentSpeed.cores", " GHz")},
		}},
		titled{"CPU temperatures", []entry{
			{"Main temperature", unit("temperature.main", "°C")},
			{"Cores temperature", each("temperature.cores", "°C")},
			{"Maximum temperature", unit("temperature.max", "°C")},
			{"Socket temperature", each("temperature.socket", "°C")},
			{"Chipset temperature", unit("temperature.chipset", "°C")},
		}},
	)
}

func memoryTabs(data []byte) ([]Tab, error) {
	o, err := catalog.Single("memory", data)
	if err != nil {
		return nil, err
	}
	out, err := tabs(o, titled{"Memory", []entry{
		{"Total", size("total")},
		{"Free", size("free")},
		{"Used", size("used")},
		{"Active", size("active")},
		{"Buff/cache", size("buffcache")},
		{"Buffers", size("buffers")},
		{"Cached", size("cached")},
		{"Slab", size("slab")},
		{"Available", size("available")},
		{"Swap total", size("swaptotal")},
		{"Swap used", size("swapused")},
		{"Swap free", size("swapfree")},
	}})
	if err != nil {
		return nil, err
	}

	layouts, err := o.Objects("memLayout")
	if err != nil {
		return nil, err
	}
	for i, l := range layouts {
		t, err := tab(l, fmt.Sprintf("Memory layout #%d", i), []entry{
			{"Size", size("size")},
			{"Bank", text("bank")},
			{"Type", text("type")},
			{"ECC", text("ecc")},
			{"Clock speed", unit("clockSpeed", " MHz")},
			{"Form factor", text("formFactor")},
			{"Manufacturer", text("manufacturer")},
			{"Part number", text("partNum")},
			{"Configured voltage", unit("voltageConfigured", " V")},
			{"Minimum voltage", unit("voltageMin", " V")},
			{"Maximum voltage", unit("voltageMax", " V")},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func batteryTabs(data []byte) ([]Tab, error) {
	o, err := catalog.Single("batteries", data)
	if err != nil {
		return nil, err
	}
	out, err := tabs(o, titled{"Battery", []entry{
		{"AC connected", text("acConnected")},
	}})
	if err != nil {
		return nil, err
	}

	batteries, err := o.Objects("batteries")
	if err != nil {
		return nil, err
	}
	for i, b := range batteries {
		t, err := tab(b, fmt.Sprintf("Battery #%d", i), []entry{
			{"Cycle count", text("cycleCount")},
			{"Is charging", text("isCharging")},
			{"Designed capacity", capacity("designedCapacity")},
			{"Max capacity", capacity("maxCapacity")},
			{"Current capacity", capacity("currentCapacity")},
			{"Voltage", unit("voltage", " V")},
			{"Percent", unit("percent", "%")},
			{"Time remaining", text("timeRemaining")},
			{"AC connected", text("acConnected")},
			{"Type", text("type")},
			{"Model", text("model")},
			{"Manufacturer", text("manufacturer")},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func gpuTabs(data []byte) ([]Tab, error) {
	gpus, err := catalog.Array("gpus", data)
	if err != nil {
		return nil, err
	}
	out := make([]Tab, 0, len(gpus))
	for i, g := range gpus {
		t, err := tab(g, fmt.Sprintf("GPU #%d", i), []entry{
			{"Vendor", text("vendor")},
			{"Model", text("model")},
			{"Bus", text("bus")},
			{"Bus address", text("busAddress")},
			{"VRAM", size("vram")},
			{"Dynamic VRAM", text("vramDynamic")},
			{"PCI ID", text("pciID")},
			{"Driver version", text("driverVersion")},
			{"Sub device ID", text("subDeviceId")},
			{"Name", text("name")},
			{"PCI bus", text("pciBus")},
			{"Fan speed", text("fanSpeed")},
			{"Memory total", size("memoryTotal")},
			{"Memory used", size("memoryUsed")},
			{"Memory free", size("memoryFree")},
			{"Utilization GPU", unit("utilizationGpu", "%")},
			{"Utilization memory", unit("utilizationMemory", "%")},
			{"Temperature GPU", unit("temperatureGpu", "°C")},
			{"Power draw", unit("powerDraw", " W")},
			{"Power limit", unit("powerLimit", " W")},
			{"Clock core", unit("clockCore", " MHz")},
			{"Clock memory", unit("clockMemory", " MHz")},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func osTabs(data []byte) ([]Tab, error) {
	o, err := catalog.Single("os", data)
	if err != nil {
		return nil, err
	}
	versions := []struct{ key, field string }{
		{"Kernel", "kernel"}, {"OpenSSL", "openssl"}, {"System OpenSSL", "systemOpenssl"},
		{"System OpenSSL lib", "systemOpensslLib"}, {"Node", "node"}, {"V8", "v8"},
		{"NPM", "npm"}, {"Yarn", "yarn"}, {"PM2", "pm2"}, {"Gulp", "gulp"},
		{"Grunt", "grunt"}, {"Git", "git"}, {"TSC", "tsc"}, {"MySQL", "mysql"},
		{"Redis", "redis"}, {"MongoDB", "mongodb"}, {"Apache", "apache"},
		{"NGINX", "nginx"}, {"PHP", "php"}, {"Docker", "docker"},
		{"Postfix", "postfix"}, {"PostgreSQL", "postgresql"}, {"Perl", "perl"},
		{"Python", "python"}, {"Python3", "python3"}, {"Java", "java"},
		{"GCC", "gcc"}, {"VirtualBox", "virtualbox"}, {"Bash", "bash"},
		{"ZSH", "zsh"}, {"Fish", "fish"}, {"PowerShell", "powershell"},
		{".NET", "dotnet"},
	}
	versionEntries := make([]entry, len(versions))
	for i, v := range versions {
		versionEntries[i] = entry{v.key + " version", text("versions." + v.field)}
	}

	return tabs(o,
		titled{"OS", []entry{
			{"Platform", text("os.platform")},
			{"Distro", text("os.distro")},
			{"Release", text("os.release")},
			{"Codename", text("os.codename")},
			{"Kernel", text("os.kernel")},
			{"Arch", text("os.arch")},
			{"Hostname", text("os.hostname")},
			{"FQDN", text("os.fqdn")},
			{"Codepage", text("os.codepage")},
			{"Logofile", text("os.logofile")},
			{"Build", text("os.build")},
			{"Service pack", text("os.servicepack")},
			{"UEFI", flag("os.uefi")},
			{"Hypervisor", flag("os.hypervizor")},
			{"Remote session", flag("os.remoteSession")},
			{"Shell", text("shell")},
		}},
		titled{"OS versions", versionEntries},
	)
}

type titled struct {
	title   string
	entries []entry
}

func tabs(o catalog.Object, groups ...titled) ([]Tab, error) {
	out := make([]Tab, 0, len(groups))
	for _, g := range groups {
		t, err := tab(o, g.title, g.entries)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
