package summary

import (
	"fmt"
	"strings"

	"github.com/dgallion1/themeindex/internal/catalog"
)

const systemPrompt = "You are an educational assistant for school students. " +
	"Write only in the language the request asks for."

const summaryPromptUz = `Quyidagi darslik bobining qisqa xulosasini yarating.

Bob: %s

Xulosa talablari:
1. O'zbek tilida yozing
2. 3-5 ta asosiy tushunchani ajratib ko'rsating
3. Asosiy g'oyani tushuntiring
4. Uzunligi: 150-250 so'z
5. O'quvchilar uchun oddiy til ishlating`

const summaryPromptRu = `Создайте краткое резюме следующей главы учебника.

Глава: %s

Требования к резюме:
1. Пишите на русском языке
2. Выделите 3-5 ключевых понятий
3. Объясните главную идею
4. Длина: 150-250 слов
5. Используйте простой язык для учеников`

const quizPromptUz = `Quyidagi darslik bobi bo'yicha aniq %d ta test savoli tuzing.

Bob: %s

Har bir savolda 4 ta javob varianti bo'lsin va faqat bittasi to'g'ri bo'lsin.
Savollar materialni tushunishni tekshirsin.`

const quizPromptRu = `Составьте ровно %d тестовых вопросов по следующей главе учебника.

Глава: %s

У каждого вопроса 4 варианта ответа, верный только один.
Вопросы должны проверять понимание материала.`

const quizFormat = `Return a JSON array. Each element must have these fields:
- "question": the question text (string)
- "options": exactly four answer options (list of strings, without letter prefixes)
- "answer": the letter of the correct option, one of "A", "B", "C", "D"

Respond with ONLY the JSON array, no other text.`

// BuildSummaryPrompt asks for a summary of one chapter in lang.
func BuildSummaryPrompt(topic, text string, lang catalog.Lang) string {
	tmpl := summaryPromptUz
	if lang == catalog.LangRu {
		tmpl = summaryPromptRu
	}
	return withContent(fmt.Sprintf(tmpl, topic), text)
}

// BuildQuizPrompt asks for n multiple-choice questions as JSON.
func BuildQuizPrompt(topic, text string, n int, lang catalog.Lang) string {
	tmpl := quizPromptUz
	if lang == catalog.LangRu {
		tmpl = quizPromptRu
	}
	return withContent(fmt.Sprintf(tmpl, n, topic)+"\n\n"+quizFormat, text)
}

func withContent(head, text string) string {
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString("\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}
