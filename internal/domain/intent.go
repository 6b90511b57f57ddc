package domain

// Intent es la variante etiquetada que produce el clasificador de mensajes.
type Intent int

const (
	IntentFreeChat Intent = iota
	IntentNumericAnswer
	IntentTopicRequest
	IntentDataQuery
	IntentLowInformation
)

func (i Intent) String() string {
	switch i {
	case IntentNumericAnswer:
		return "numeric_answer"
	case IntentTopicRequest:
		return "topic_request"
	case IntentDataQuery:
		return "data_query"
	case IntentLowInformation:
		return "low_information"
	}
	return "free_chat"
}
