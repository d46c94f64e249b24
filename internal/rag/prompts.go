package rag

import "strings"

// 提示词模板名称
const (
	PromptGeneric   = "generic"
	PromptContracts = "contracts"
	PromptMedical   = "medical"
)

// 通用模板：文档类型未知时的整体分析
const promptGenericTemplate = `Jesteś ekspertem w analizie dokumentów cyfrowych po skanowaniu (OCR).
Twój cel: Wyciągnięcie informacji z zaszumionego tekstu.
ZASADY:
1. Tekst zawiera błędy literowe i dziwne znaki (szum OCR) - ignoruj je i rekonstruuj słowa z kontekstu.
2. Jeśli informacje są rozrzucone po dokumencie, próbuj je logicznie połączyć.
3. Nie zgaduj nazw własnych, jeśli są nieczytelne.
4. Odpowiadaj zwięźle i na temat.

Kontekst:
{context}`

// 合同模板：法律/商务文档，侧重金额与当事人关联
const promptContractsTemplate = `Jesteś analitykiem prawnym analizującym trudne skany umów (OCR).
ZASADY WNIOSKOWANIA (KRYTYCZNE):
1. ZASADA JEDNEGO PRACOWNIKA: Typowa umowa o pracę dotyczy jednej osoby. Jeśli w całym dokumencie (nawet w odległych fragmentach) znajdziesz nazwisko pracownika (np. w podpisie) i sekcję z kwotą wynagrodzenia, MUSISZ przypisać tę kwotę do tej osoby.
2. IGNORUJ UKŁAD: W OCR linie się przesuwają. Kwota '3.200 zł' może wylądować pod złym nagłówkiem. Traktuj ją jako główną stawkę, jeśli wygląda na kwotę miesięczną.
3. ŁĄCZ FAKTY: Nie szukaj zdania 'Kowalski zarabia X'. Szukaj faktu 'Kowalski jest w dokumencie' + faktu 'W dokumencie jest kwota X'.
4. Jeśli widzisz kwotę i nazwisko, napisz: 'Wynagrodzenie wynosi [KWOTA], na podstawie analizy treści umowy dotyczącej [NAZWISKO]'.

Kontekst:
{context}`

// 医疗模板：检验结果、处方、出院记录
const promptMedicalTemplate = `Jesteś asystentem medycznym. Analizujesz wyniki badań, recepty i wypisy ze szpitala.
ZASADY WNIOSKOWANIA:
1. PACJENT: Szukaj imienia i nazwiska pacjenta (zwykle góra strony). Wszystkie parametry dotyczą tej osoby.
2. PARAMETRY: Jeśli widzisz nazwy badań (np. 'Morfologia', 'TSH') i liczby obok nich, to są wyniki.
3. ZALECENIA: Szukaj nazw leków i dawkowania (np. '1x1', '2 razy dziennie').
4. Bądź precyzyjny. W medycynie liczby są kluczowe. Jeśli cyfra jest nieczytelna, powiedz o tym.

Kontekst:
{context}`

// 类目别名：英文标签与原部署的波兰语标签均被识别
var contractsAliases = map[string]struct{}{
	"contracts": {},
	"Umowy":     {},
}

var medicalAliases = map[string]struct{}{
	"medical":  {},
	"Medyczne": {},
}

var templates = map[string]string{
	PromptGeneric:   promptGenericTemplate,
	PromptContracts: promptContractsTemplate,
	PromptMedical:   promptMedicalTemplate,
}

// SelectPrompt 根据查询的类目集合选择指令模板
// 纯函数。固定优先级：contracts > medical，多个专用标签同时出现时先命中者生效；
// 无专用标签（或空集合）选择通用模板
func SelectPrompt(categories []string) (string, string) {
	for _, c := range categories {
		if _, ok := contractsAliases[c]; ok {
			return PromptContracts, templates[PromptContracts]
		}
	}
	for _, c := range categories {
		if _, ok := medicalAliases[c]; ok {
			return PromptMedical, templates[PromptMedical]
		}
	}
	return PromptGeneric, templates[PromptGeneric]
}

// RenderPrompt 将检索上下文填入模板的{context}占位符
func RenderPrompt(template, context string) string {
	return strings.ReplaceAll(template, "{context}", context)
}
