package normalize

// IndustryCatchAll is the designated catch-all member of the industry
// vocabulary. Any out-of-vocabulary value is coerced to it.
const IndustryCatchAll = "其他"

// industryVocabulary is the fixed, closed set of valid industry values.
var industryVocabulary = map[string]struct{}{
	"人工智能":  {},
	"企业服务":  {},
	"医疗健康":  {},
	"金融科技":  {},
	"消费零售":  {},
	"教育培训":  {},
	"先进制造":  {},
	"新能源":   {},
	"半导体":   {},
	"汽车交通":  {},
	"文化娱乐":  {},
	"农业科技":  {},
	"物流供应链": {},
	IndustryCatchAll: {},
}

// CoerceIndustry maps a raw industry value into the vocabulary,
// substituting the catch-all for unknown values.
func CoerceIndustry(raw string) string {
	if _, ok := industryVocabulary[raw]; ok {
		return raw
	}
	return IndustryCatchAll
}
