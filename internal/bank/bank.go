// Package bank holds the static evaluation question banks, one per subtype.
package bank

import "github.com/dyslexiaaid/screening-service/internal/models"

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func speech(id int, text string, expected models.Expected, hint string) models.Question {
	return models.Question{ID: id, Text: text, Kind: models.InteractionSpeech, Expected: expected, Hint: strPtr(hint)}
}

func choice(id int, text string, options []string, expected, hint string) models.Question {
	return models.Question{
		ID:       id,
		Text:     text,
		Kind:     models.InteractionMultipleChoice,
		Options:  options,
		Expected: models.ExpectValue(expected),
		Hint:     strPtr(hint),
	}
}

func timedSpeech(id int, text string, expected models.Expected, limit int, hint string) models.Question {
	q := speech(id, text, expected, hint)
	q.Timed = true
	q.TimeLimitSeconds = intPtr(limit)
	return q
}

var banks = map[models.Subtype][]models.Question{
	models.SubtypePhonological: {
		speech(1, "Say the word 'cat' aloud and record your pronunciation.",
			models.ExpectValue("cat"), "Speak clearly into your microphone"),
		speech(2, "Break the word 'sun' into individual sounds (phonemes).",
			models.ExpectValue("s u n"), "Say each sound separately: s - u - n"),
		choice(3, "Which word rhymes with 'bat'? Choose one.",
			[]string{"cat", "bed", "book", "run"}, "cat", "Think of words that sound similar at the end"),
		choice(4, "What is the first sound you hear in 'fish'?",
			[]string{"f", "sh", "i", "h"}, "f", "Focus on the beginning sound"),
		speech(5, "Blend these sounds together: /b/ /a/ /t/",
			models.ExpectValue("bat"), "Say the sounds quickly together: b-a-t"),
	},
	models.SubtypeSurface: {
		speech(1, "Read this word aloud: 'yacht'",
			models.ExpectValue("yacht"), "Try to recognize the whole word"),
		choice(2, "Which spelling is correct?",
			[]string{"friend", "frend"}, "friend", "Think about common spelling patterns"),
		speech(3, "Read this sight word: 'the'",
			models.ExpectValue("the"), "Say it naturally"),
		choice(4, "Which word is spelled correctly?",
			[]string{"knight", "nite"}, "knight", "Consider standard English spelling"),
		choice(5, "Does this sentence make sense? 'The cat sat on the mat.'",
			[]string{"Yes", "No"}, "Yes", "Think about word meaning in context"),
	},
	models.SubtypeVisual: {
		choice(1, "Which letter is different? b d p q",
			[]string{"b", "d", "p", "q"}, "q", "Look carefully at each letter shape"),
		choice(2, "Do these words look the same? 'was' and 'saw'",
			[]string{"Yes", "No"}, "No", "Look at the letter order"),
		choice(3, "Find the matching shapes: circle circle square triangle",
			[]string{"1st and 2nd", "2nd and 3rd", "3rd and 4th", "All different"}, "1st and 2nd", "Look for identical shapes"),
		choice(4, "Which word has no reversed letters?",
			[]string{"bog", "dog", "qog", "pog"}, "dog", "Look for normally oriented letters"),
		choice(5, "Which number looks normal?",
			[]string{"2", "5", "Ɛ", "7"}, "7", "Think about normal number shapes"),
	},
	models.SubtypeRapidNaming: {
		timedSpeech(1, "Name these colors: red yellow blue green",
			models.ExpectAnyOf("red", "yellow", "blue", "green"), 8, "Say the color names in order"),
		timedSpeech(2, "Say the days of the week starting from Monday",
			models.ExpectValue("monday tuesday wednesday thursday friday saturday sunday"), 10, "Go as fast as you can while being clear"),
		timedSpeech(3, "Name these shapes: star heart diamond club",
			models.ExpectAnyOf("star", "heart", "diamond", "club"), 6, "Say the shape names in order"),
		timedSpeech(4, "Count from 1 to 10",
			models.ExpectValue("one two three four five six seven eight nine ten"), 8, "Say the numbers in order quickly"),
		timedSpeech(5, "Name these animals: dog cat mouse rabbit",
			models.ExpectAnyOf("dog", "cat", "mouse", "rabbit"), 6, "Say the animal names rapidly"),
	},
}

// Questions returns the ordered bank for a subtype. Subtypes without a bank
// yield an empty slice. The returned slice is a copy.
func Questions(subtype models.Subtype) []models.Question {
	questions := banks[subtype]
	out := make([]models.Question, len(questions))
	copy(out, questions)
	return out
}

// Views returns the bank with expected answers withheld.
func Views(subtype models.Subtype) []models.QuestionView {
	questions := banks[subtype]
	out := make([]models.QuestionView, len(questions))
	for i, q := range questions {
		out[i] = q.View()
	}
	return out
}
