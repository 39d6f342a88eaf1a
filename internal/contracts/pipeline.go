package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그 필드에서 이 상수를 사용해야 함
//
// 흐름:
//   ASSEMBLE → SCREEN → COMPUTE → RENDER

// Stage represents a step of a research query run
type Stage string

const (
	// StageAssemble 쿼리 조립: 필드 해석, 유니버스 필터, 컬럼 생성
	// 위치: internal/assembler/
	StageAssemble Stage = "Q1_ASSEMBLE"

	// StageScreen 세션별 유니버스 스크린 평가
	// 위치: internal/engine/
	StageScreen Stage = "Q2_SCREEN"

	// StageCompute 윈도우 로딩 및 컬럼 계산
	// 위치: internal/engine/
	StageCompute Stage = "Q3_COMPUTE"

	// StageRender 결과 테이블 출력 (전치)
	// 위치: internal/render/
	StageRender Stage = "Q4_RENDER"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "Q1")
func (s Stage) ShortName() string {
	switch s {
	case StageAssemble:
		return "Q1"
	case StageScreen:
		return "Q2"
	case StageCompute:
		return "Q3"
	case StageRender:
		return "Q4"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all stages in order
func AllStages() []Stage {
	return []Stage{
		StageAssemble,
		StageScreen,
		StageCompute,
		StageRender,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
