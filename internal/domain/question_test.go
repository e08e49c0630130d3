package domain

import (
	"errors"
	"testing"
)

func options(correct ...int) []Option {
	isCorrect := make(map[int]bool)
	for _, i := range correct {
		isCorrect[i] = true
	}
	var opts []Option
	for i := 0; i < OptionCount; i++ {
		opts = append(opts, Option{Text: "option", IsCorrect: isCorrect[i]})
	}
	return opts
}

func TestQuestionInputValidate(t *testing.T) {
	valid := QuestionInput{
		Text:       "What is the capital of France?",
		Options:    options(2),
		Category:   "Geography",
		Difficulty: DifficultyEasy,
	}

	tests := []struct {
		name    string
		mutate  func(in *QuestionInput)
		wantErr bool
	}{
		{name: "valid", mutate: func(in *QuestionInput) {}},
		{name: "empty text", mutate: func(in *QuestionInput) { in.Text = "   " }, wantErr: true},
		{name: "three options", mutate: func(in *QuestionInput) { in.Options = in.Options[:3] }, wantErr: true},
		{name: "five options", mutate: func(in *QuestionInput) { in.Options = append(in.Options, Option{Text: "x"}) }, wantErr: true},
		{name: "no correct option", mutate: func(in *QuestionInput) { in.Options = options() }, wantErr: true},
		{name: "two correct options", mutate: func(in *QuestionInput) { in.Options = options(0, 1) }, wantErr: true},
		{name: "blank option text", mutate: func(in *QuestionInput) { in.Options[1].Text = " " }, wantErr: true},
		{name: "unknown difficulty", mutate: func(in *QuestionInput) { in.Difficulty = "brutal" }, wantErr: true},
		{name: "medium difficulty", mutate: func(in *QuestionInput) { in.Difficulty = DifficultyMedium }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			in.Options = options(2)
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuestion) {
					t.Errorf("Validate() = %v, want ErrInvalidQuestion", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidDifficulty(t *testing.T) {
	for _, d := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		if !ValidDifficulty(d) {
			t.Errorf("ValidDifficulty(%q) = false", d)
		}
	}
	for _, d := range []string{"", "EASY", "impossible"} {
		if ValidDifficulty(d) {
			t.Errorf("ValidDifficulty(%q) = true", d)
		}
	}
}
