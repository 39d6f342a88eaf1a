package universe

import (
	"fmt"
	"sort"
	"strings"
)

// Industry is a named industry classification code
type Industry struct {
	Name string `json:"name"`
	Code int64  `json:"code"`
}

// 업종 코드 (Morningstar industry code)
var industries = map[string]int64{
	"airline":       31053108,
	"semiconductor": 31169147,
}

// DefaultIndustry is used when nothing is configured
const DefaultIndustry = "airline"

// LookupIndustry resolves a named industry option (case-insensitive)
func LookupIndustry(name string) (Industry, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	code, ok := industries[key]
	if !ok {
		return Industry{}, fmt.Errorf("unknown industry %q (options: %s)", name, strings.Join(IndustryNames(), ", "))
	}
	return Industry{Name: key, Code: code}, nil
}

// Industries returns all named options sorted by name
func Industries() []Industry {
	list := make([]Industry, 0, len(industries))
	for name, code := range industries {
		list = append(list, Industry{Name: name, Code: code})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// IndustryNames returns the option names sorted
func IndustryNames() []string {
	list := Industries()
	names := make([]string, len(list))
	for i, ind := range list {
		names[i] = ind.Name
	}
	return names
}
