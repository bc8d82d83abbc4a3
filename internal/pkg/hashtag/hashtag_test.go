package hashtag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "synonym resolution preserves order",
			text: "Едем в #Испания и #greece",
			want: []string{"Испания", "Греция"},
		},
		{
			name: "no tags",
			text: "no tags here",
			want: nil,
		},
		{
			name: "unrecognized tags discarded",
			text: "#путешествия #лайфхак",
			want: nil,
		},
		{
			name: "duplicates removed across scripts",
			text: "#spain и снова #Испания, а ещё #испания",
			want: []string{"Испания"},
		},
		{
			name: "case-insensitive canonical match",
			text: "тур в #ВЬЕТНАМ",
			want: []string{"Вьетнам"},
		},
		{
			name: "mixed recognized and unrecognized",
			text: "#горящий_тур #egypt #море #Индия",
			want: []string{"Египет", "Индия"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestNormalize(t *testing.T) {
	got, ok := Normalize("GreatBritain")
	assert.True(t, ok)
	assert.Equal(t, "Великобритания", got)

	_, ok = Normalize("atlantis")
	assert.False(t, ok)
}
