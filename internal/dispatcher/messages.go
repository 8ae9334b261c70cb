package dispatcher

import "fmt"

// Message strings match the original bot's wording verbatim so the content a
// user actually sees is unchanged by the rewrite.
const (
	msgFileMissing      = "❌ Ошибка: Файл для транскрибации не найден."
	msgCancelled        = "❌ Обработка была отменена."
	msgNoSpeechDetected = "К сожалению, не удалось распознать речь в файле. Возможно, файл не содержит речи или имеет слишком низкое качество."
)

func msgTranscribingStarted(model string) string {
	return fmt.Sprintf("Транскрибирую аудио с помощью локального Whisper (модель %s)...\n\n", model)
}

func msgModelDowngrade(requested, effective string) string {
	return fmt.Sprintf("Файл имеет большой размер, поэтому вместо модели %s будет использована модель %s для оптимизации памяти.\n\n", requested, effective)
}

func msgProgress(fileName, model string, elapsedSeconds int, percent int, bar string) string {
	return fmt.Sprintf("Транскрибирую %s (модель %s)...\n\n[%s] %d%%\nПрошло: %ds", fileName, model, bar, percent, elapsedSeconds)
}

func msgChildFailure(detail string) string {
	return fmt.Sprintf("❌ Ошибка при обработке файла: %s", detail)
}
