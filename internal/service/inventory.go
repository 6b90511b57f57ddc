package service

import (
	"fmt"

	"companion-llm/internal/domain"
)

// Inventario fijo de 100 items Likert (20 por rasgo), presentado en orden
// round-robin O, C, E, A, N para no fatigar un solo rasgo.
// Los items marcados reversed puntuan 6 - valor.

type inventoryItem struct {
	text     string
	reversed bool
}

var opennessItems = []inventoryItem{
	{"I have a vivid imagination.", false},
	{"I am not interested in abstract ideas.", true},
	{"I enjoy trying food I have never tasted before.", false},
	{"I prefer routines over new experiences.", true},
	{"I often get lost in thought about how things could be different.", false},
	{"I find art museums boring.", true},
	{"I like to play with new ideas just to see where they lead.", false},
	{"I rarely question the way things have always been done.", true},
	{"I enjoy reading about topics far outside my daily life.", false},
	{"I avoid philosophical discussions.", true},
	{"I notice beauty in things other people overlook.", false},
	{"I would rather watch a familiar movie than an experimental one.", true},
	{"I daydream about inventing something new.", false},
	{"I dislike changes to my plans.", true},
	{"I enjoy learning a few words of every language I encounter.", false},
	{"I think poetry is a waste of time.", true},
	{"I like visiting places I know nothing about.", false},
	{"I stick to music I already know.", true},
	{"I enjoy puzzles with no single right answer.", false},
	{"I prefer concrete facts over theories.", true},
}

var conscientiousnessItems = []inventoryItem{
	{"I like to have a detailed plan before starting anything.", false},
	{"I often leave tasks unfinished.", true},
	{"I keep my belongings neat and in place.", false},
	{"I frequently misplace things.", true},
	{"I follow through on promises even when it is inconvenient.", false},
	{"I put off unpleasant chores as long as possible.", true},
	{"I double-check my work before calling it done.", false},
	{"I make impulsive purchases I later regret.", true},
	{"I arrive early to appointments.", false},
	{"I find schedules suffocating.", true},
	{"I break big goals into small steps and track them.", false},
	{"My workspace is usually a mess.", true},
	{"I pay my bills the day they arrive.", false},
	{"I decide things on a whim.", true},
	{"I finish what I start even when I lose interest.", false},
	{"I often forget to return borrowed things.", true},
	{"I prepare for meetings in advance.", false},
	{"I skip steps when instructions feel tedious.", true},
	{"I keep working until a job is done properly.", false},
	{"I let dishes pile up for days.", true},
}

var extraversionItems = []inventoryItem{
	{"I feel energized after spending time with a big group.", false},
	{"I prefer a quiet evening alone over a party.", true},
	{"I find it easy to start conversations with strangers.", false},
	{"I stay in the background at social events.", true},
	{"I love being the center of attention.", false},
	{"Long social gatherings exhaust me.", true},
	{"I make friends quickly wherever I go.", false},
	{"I need a lot of time alone to recharge.", true},
	{"I speak up readily in group discussions.", false},
	{"I keep my thoughts to myself around new people.", true},
	{"I seek out lively, crowded places.", false},
	{"I would rather text than call.", true},
	{"I laugh loudly and often in company.", false},
	{"I find small talk draining.", true},
	{"I volunteer to present in front of others.", false},
	{"I leave parties early when I can.", true},
	{"I strike up chats in waiting rooms and queues.", false},
	{"I prefer working alone to working in a team.", true},
	{"I get restless when I spend a whole day without company.", false},
	{"I screen calls even from people I like.", true},
}

var agreeablenessItems = []inventoryItem{
	{"I forgive people easily.", false},
	{"I hold grudges for a long time.", true},
	{"I go out of my way to make others feel comfortable.", false},
	{"I enjoy a good argument more than agreement.", true},
	{"I trust people until they give me a reason not to.", false},
	{"I suspect others of having hidden motives.", true},
	{"I share credit even when I did most of the work.", false},
	{"I insist on my point until the other person gives in.", true},
	{"I feel others' emotions almost as if they were mine.", false},
	{"Other people's problems are not my concern.", true},
	{"I let others choose first.", false},
	{"I tell people exactly what I think of them, even harshly.", true},
	{"I check on friends who have gone quiet.", false},
	{"I find it satisfying to win at someone else's expense.", true},
	{"I give people second chances.", false},
	{"I think most people exaggerate their troubles.", true},
	{"I soften bad news to protect people's feelings.", false},
	{"I interrupt when I disagree.", true},
	{"I lend things without expecting them back.", false},
	{"I keep score of favors owed to me.", true},
}

var neuroticismItems = []inventoryItem{
	{"I worry about things that might go wrong.", false},
	{"I stay calm under pressure.", true},
	{"Small setbacks can ruin my whole day.", false},
	{"I recover quickly after bad news.", true},
	{"My mood changes a lot during the week.", false},
	{"I rarely feel anxious about the future.", true},
	{"I replay embarrassing moments over and over.", false},
	{"Criticism rolls off me easily.", true},
	{"I get irritated by small annoyances.", false},
	{"I feel relaxed most of the time.", true},
	{"Uncertainty keeps me up at night.", false},
	{"I rarely regret decisions once they are made.", true},
	{"I feel overwhelmed when several things go wrong at once.", false},
	{"I am hard to rattle.", true},
	{"I often fear the worst outcome.", false},
	{"I let tension go as soon as a conflict ends.", true},
	{"I take offense more easily than most people.", false},
	{"I stay even-tempered when plans fall apart.", true},
	{"I feel a knot in my stomach before important events.", false},
	{"I seldom feel blue.", true},
}

// QuestionInventory es el inventario completo, en el orden fijo de presentacion.
var QuestionInventory = buildInventory()

var inventoryByID = func() map[string]domain.Question {
	m := make(map[string]domain.Question, len(QuestionInventory))
	for _, q := range QuestionInventory {
		m[q.ID] = q
	}
	return m
}()

func buildInventory() []domain.Question {
	type traitBlock struct {
		trait  string
		prefix string
		items  []inventoryItem
	}
	blocks := []traitBlock{
		{domain.TraitOpenness, "o", opennessItems},
		{domain.TraitConscientiousness, "c", conscientiousnessItems},
		{domain.TraitExtraversion, "e", extraversionItems},
		{domain.TraitAgreeableness, "a", agreeablenessItems},
		{domain.TraitNeuroticism, "n", neuroticismItems},
	}

	questions := make([]domain.Question, 0, domain.InventorySize)
	for round := 0; round < len(opennessItems); round++ {
		for _, b := range blocks {
			item := b.items[round]
			questions = append(questions, domain.Question{
				ID:       fmt.Sprintf("%s%02d", b.prefix, round+1),
				Trait:    b.trait,
				Reversed: item.reversed,
				Text:     item.text,
			})
		}
	}
	return questions
}

// QuestionByID busca una pregunta del inventario; ok=false si el id no existe.
func QuestionByID(id string) (domain.Question, bool) {
	q, ok := inventoryByID[id]
	return q, ok
}
