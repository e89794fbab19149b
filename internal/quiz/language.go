package quiz

import (
	"unicode"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type Language string

const (
	French Language = "fr"
	Arabic Language = "ar"
)

func (l Language) RTL() bool {
	return l == Arabic
}

// DetectLanguage picks Arabic as soon as any question text or option uses
// Arabic script, French otherwise.
func DetectLanguage(questions []models.Question) Language {
	for _, q := range questions {
		if hasArabic(q.Text()) {
			return Arabic
		}
		for _, s := range displayStrings(q) {
			if hasArabic(s) {
				return Arabic
			}
		}
	}
	return French
}

func displayStrings(q models.Question) []string {
	switch v := q.(type) {
	case *models.QCMQuestion:
		return v.Options
	case *models.TrueFalseQuestion:
		return models.TrueFalseOptions
	case *models.MatchingQuestion:
		out := make([]string, 0, len(v.Pairs)*2)
		for _, p := range v.Pairs {
			out = append(out, p.Left, p.Right)
		}
		return out
	case *models.OrderingQuestion:
		return v.Items
	case *models.DragAndDropQuestion:
		return append(append([]string{}, v.Options.Draggables...), v.Options.Targets...)
	}
	return nil
}

func hasArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

// Messages are the user-facing strings of a session
type Messages struct {
	NoQuestions      string `json:"no_questions"`
	LoadFailed       string `json:"load_failed"`
	Retry            string `json:"retry"`
	Question         string `json:"question"`
	Of               string `json:"of"`
	CurrentScore     string `json:"current_score"`
	ValidateAnswer   string `json:"validate_answer"`
	NextQuestion     string `json:"next_question"`
	FinishQuiz       string `json:"finish_quiz"`
	QuizCompleted    string `json:"quiz_completed"`
	SuccessRate      string `json:"success_rate"`
	ExcellentWork    string `json:"excellent_work"`
	GoodWork         string `json:"good_work"`
	KeepTrying       string `json:"keep_trying"`
	TeacherTestMode  string `json:"teacher_test_mode"`
	Continue         string `json:"continue"`
	ContinueIn       string `json:"continue_in"`
	CorrectAnswer    string `json:"correct_answer"`
	IncorrectAnswer  string `json:"incorrect_answer"`
	CorrectAnswerWas string `json:"correct_answer_was"`
}

var catalog = map[Language]Messages{
	French: {
		NoQuestions:      "Aucune question trouvée pour ce quiz.",
		LoadFailed:       "Impossible de charger le quiz. Veuillez réessayer.",
		Retry:            "Réessayer",
		Question:         "Question",
		Of:               "sur",
		CurrentScore:     "Score actuel",
		ValidateAnswer:   "Valider ma réponse",
		NextQuestion:     "Question suivante",
		FinishQuiz:       "Terminer le quiz",
		QuizCompleted:    "Quiz Terminé !",
		SuccessRate:      "de réussite",
		ExcellentWork:    "Excellent travail !",
		GoodWork:         "Bon travail !",
		KeepTrying:       "Continuez vos efforts !",
		TeacherTestMode:  "Mode test enseignant - Score non enregistré",
		Continue:         "Continuer",
		ContinueIn:       "Continuer dans",
		CorrectAnswer:    "Bonne réponse !",
		IncorrectAnswer:  "Réponse incorrecte",
		CorrectAnswerWas: "La bonne réponse était :",
	},
	Arabic: {
		NoQuestions:      "لم يتم العثور على أسئلة لهذا الاختبار.",
		LoadFailed:       "تعذر تحميل الاختبار. يرجى المحاولة مرة أخرى.",
		Retry:            "إعادة المحاولة",
		Question:         "سؤال",
		Of:               "من",
		CurrentScore:     "النتيجة الحالية",
		ValidateAnswer:   "تأكيد الإجابة",
		NextQuestion:     "السؤال التالي",
		FinishQuiz:       "إنهاء الاختبار",
		QuizCompleted:    "تم إكمال الاختبار!",
		SuccessRate:      "معدل النجاح",
		ExcellentWork:    "عمل ممتاز!",
		GoodWork:         "عمل جيد!",
		KeepTrying:       "استمر في المحاولة!",
		TeacherTestMode:  "وضع اختبار المعلم - لم يتم حفظ النتيجة",
		Continue:         "متابعة",
		ContinueIn:       "متابعة خلال",
		CorrectAnswer:    "إجابة صحيحة!",
		IncorrectAnswer:  "إجابة خاطئة",
		CorrectAnswerWas: "الإجابة الصحيحة كانت:",
	},
}

func MessagesFor(l Language) Messages {
	if m, ok := catalog[l]; ok {
		return m
	}
	return catalog[French]
}
