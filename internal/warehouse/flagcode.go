package warehouse

import "github.com/anascacais/medical-iot-pipeline/internal/models"

// 仓库行的 flag_type_code 编码
const (
	FlagCodeClean        = 0 // 无 flag
	FlagCodeInvalidValue = 1 // {modality}_INV
	FlagCodeNaNValue     = 2 // {modality}_NAN
	FlagCodeInvalidTS    = 3 // TS_INV
	FlagCodeImpossibleTS = 4 // TS_IMP
)

// ResolveFlagCode 解析某个 modality 在仓库行里的 flag_type_code
// 优先级：TS_INV > TS_IMP > {modality}_INV > {modality}_NAN > 无
// 时间戳级别的 flag 覆盖该记录展开出的每一条 modality 行
func ResolveFlagCode(column string, flags []string) int {
	has := func(name string) bool {
		for _, f := range flags {
			if f == name {
				return true
			}
		}
		return false
	}

	if has(models.FlagTSInvalid) {
		return FlagCodeInvalidTS
	}
	if has(models.FlagTSImpossible) {
		return FlagCodeImpossibleTS
	}
	if has(models.FlagInvalid(column)) {
		return FlagCodeInvalidValue
	}
	if has(models.FlagNaN(column)) {
		return FlagCodeNaNValue
	}
	return FlagCodeClean
}
