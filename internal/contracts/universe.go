package contracts

import "time"

// Membership is the screened universe for one session
// ⭐ SSOT: 스크린 통과 종목 전달
type Membership struct {
	Date       time.Time         `json:"date"`
	Assets     []string          `json:"assets"`                // 스크린 통과 종목
	Excluded   map[string]string `json:"excluded"`              // 제외 종목: 사유
	TotalCount int               `json:"total_count,omitempty"` // 평가 대상 전체 종목 수
}

// Contains checks if an asset passed the screen
func (m *Membership) Contains(asset string) bool {
	for _, a := range m.Assets {
		if a == asset {
			return true
		}
	}
	return false
}

// IsExcluded checks if an asset was excluded and returns the reason
func (m *Membership) IsExcluded(asset string) (bool, string) {
	reason, exists := m.Excluded[asset]
	return exists, reason
}

// Count returns the number of assets that passed
func (m *Membership) Count() int {
	return len(m.Assets)
}
