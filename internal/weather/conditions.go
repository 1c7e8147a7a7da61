package weather

import (
	"fmt"
	"strings"
)

// IconURLTemplate builds icon references from provider icon codes.
const IconURLTemplate = "https://openweathermap.org/img/wn/%s@2x.png"

// conditionText maps OpenWeatherMap condition ids to Korean descriptions.
var conditionText = map[int]string{
	200: "뇌우를 동반한 약한 비",
	201: "뇌우를 동반한 비",
	202: "뇌우를 동반한 강한 비",
	210: "약한 뇌우",
	211: "뇌우",
	212: "강한 뇌우",
	221: "산발적 뇌우",
	230: "뇌우를 동반한 약한 이슬비",
	231: "뇌우를 동반한 이슬비",
	232: "뇌우를 동반한 강한 이슬비",
	300: "약한 이슬비",
	301: "이슬비",
	302: "강한 이슬비",
	310: "가랑비",
	311: "가랑비",
	312: "강한 가랑비",
	313: "강한 가랑비",
	314: "강한 가랑비",
	321: "소나기성 이슬비",
	500: "가벼운 비",
	501: "보통 비",
	502: "강한 비",
	503: "매우 강한 비",
	504: "폭우",
	511: "어는 비",
	520: "약한 소나기",
	521: "소나기",
	522: "강한 소나기",
	531: "산발적 소나기",
	600: "약한 눈",
	601: "눈",
	602: "강한 눈",
	611: "진눈깨비",
	612: "소나기성 진눈깨비",
	613: "소나기성 진눈깨비",
	615: "비와 눈",
	616: "비와 눈",
	620: "소나기 눈",
	621: "소나기 눈",
	622: "강한 소나기 눈",
	701: "박무",
	711: "연무",
	721: "실안개",
	731: "먼지",
	741: "안개",
	751: "모래",
	761: "먼지",
	762: "화산재",
	771: "돌풍",
	781: "토네이도",
	800: "맑음",
	801: "구름 조금",
	802: "구름 약간",
	803: "구름 많음",
	804: "흐림",
}

// Describe localises a condition: table text first, then the provider's own
// description, then the empty string.
func Describe(c *Condition) string {
	if c == nil {
		return ""
	}
	if c.ID != nil {
		if text, ok := conditionText[*c.ID]; ok {
			return text
		}
	}
	return c.Description
}

// IconURL expands an icon code; an empty code yields an empty reference.
func IconURL(c *Condition) string {
	if c == nil {
		return ""
	}
	code := strings.TrimSpace(c.Icon)
	if code == "" {
		return ""
	}
	return fmt.Sprintf(IconURLTemplate, code)
}
