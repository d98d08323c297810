package analyzer

import "regexp"

// rule builds a default pattern rule. Patterns are compiled once at package init.
func rule(c Category, weight float64, label, pattern string) PatternRule {
	return PatternRule{
		Matcher:  regexp.MustCompile(pattern),
		Weight:   weight,
		Category: c,
		Label:    label,
	}
}

const months = `january|february|march|april|june|july|august|september|october|november|december`

// defaultRules is the canonical weight table. Never mutated after init.
var defaultRules = []PatternRule{
	// AI-style transitions and hedges
	rule(CategoryAITransition, 20, "furthermore", `(?i)\bfurthermore\b`),
	rule(CategoryAITransition, 20, "moreover", `(?i)\bmoreover\b`),
	rule(CategoryAITransition, 15, "additionally", `(?i)\badditionally\b`),
	rule(CategoryAITransition, 12, "consequently", `(?i)\bconsequently\b`),
	rule(CategoryAITransition, 10, "therefore", `(?i)\btherefore\b`),
	rule(CategoryAITransition, 12, "nonetheless", `(?i)\bnonetheless\b`),
	rule(CategoryAITransition, 25, "it's important to note", `(?i)\bit[’']?s important to note\b`),
	rule(CategoryAITransition, 25, "it's worth noting", `(?i)\bit[’']?s worth noting\b`),
	rule(CategoryAITransition, 22, "it should be noted", `(?i)\bit should be noted\b`),
	rule(CategoryAITransition, 20, "it's crucial to", `(?i)\bit[’']?s crucial to\b`),
	rule(CategoryAITransition, 20, "in conclusion", `(?i)\bin conclusion\b`),
	rule(CategoryAITransition, 18, "to summarize", `(?i)\bto summari[sz]e\b`),
	rule(CategoryAITransition, 18, "in summary", `(?i)\bin summary\b`),
	rule(CategoryAITransition, 8, "overall", `(?i)\boverall\b`),
	rule(CategoryAITransition, 8, "ultimately", `(?i)\bultimately\b`),
	rule(CategoryAITransition, 15, "delve into", `(?i)\bdelv(e|es|ing) into\b`),
	rule(CategoryAITransition, 15, "plays a key role", `(?i)\bplays? an? (crucial|vital|pivotal|key) role\b`),

	// AI self-reference
	rule(CategoryAISelfReference, 30, "as an AI", `(?i)\bas an ai(\s+language\s+model)?\b`),
	rule(CategoryAISelfReference, 30, "as a language model", `(?i)\bas a (large )?language model\b`),
	rule(CategoryAISelfReference, 30, "no personal experiences", `(?i)\bi (do not|don[’']?t) have personal (opinions|experiences|feelings)\b`),
	rule(CategoryAISelfReference, 30, "training cutoff", `(?i)\bmy (knowledge|training) (cutoff|data)\b`),

	// Human colloquialisms, slang and fillers
	rule(CategoryHumanColloquial, 20, "internet slang", `(?i)\b(lol|omg|wtf|tbh|imo|imho|smh|ngl)\b`),
	rule(CategoryHumanColloquial, 25, "laughter", `(?i)\b(ha(ha)+|lmao|rofl)\b`),
	rule(CategoryHumanColloquial, 18, "informal contractions", `(?i)\b(gonna|wanna|kinda|sorta|dunno|gotta|y[’']?all)\b`),
	rule(CategoryHumanColloquial, 15, "opinion markers", `(?i)\b(i think|i feel|i believe|personally|honestly)\b`),
	rule(CategoryHumanColloquial, 15, "repeated punctuation", `\.{3,}|!{2,}|\?{2,}`),
	rule(CategoryHumanColloquial, 15, "filler words", `(?i)\b(um+|uh+|you know)\b`),

	// Personal experience
	rule(CategoryPersonalExperience, 25, "my experience", `(?i)\bmy (experience|opinion|view|perspective|story|life|family|friends?|mom|dad)\b`),
	rule(CategoryPersonalExperience, 25, "first-person recollection", `(?i)\bi (remember|experienced|went|saw|felt|thought)\b`),
	rule(CategoryPersonalExperience, 20, "recent past", `(?i)\b(yesterday|last week|when i was|growing up)\b`),

	// Sensational / hyperreal framing
	rule(CategorySensational, 20, "shocking", `(?i)\bshocking\b`),
	rule(CategorySensational, 18, "unbelievable", `(?i)\bunbelievable\b`),
	rule(CategorySensational, 15, "incredible", `(?i)\bincredible\b`),
	rule(CategorySensational, 15, "amazing", `(?i)\bamazing\b`),
	rule(CategorySensational, 18, "devastating", `(?i)\bdevastating\b`),
	rule(CategorySensational, 18, "explosive", `(?i)\bexplosive\b`),
	rule(CategorySensational, 22, "bombshell", `(?i)\bbombshell\b`),
	rule(CategorySensational, 15, "exclusive", `(?i)\bexclusive\b`),
	rule(CategorySensational, 15, "breaking", `(?i)\bbreaking\b`),
	rule(CategorySensational, 15, "urgent", `(?i)\burgent\b`),
	rule(CategorySensational, 20, "mind-blowing", `(?i)\bmind-?blowing\b`),
	rule(CategorySensational, 25, "you won't believe", `(?i)\byou won[’']?t believe\b`),
	rule(CategorySensational, 25, "doctors hate this", `(?i)\bdoctors hate (this|him|her|them)\b`),

	// Manipulation / anonymous sourcing
	rule(CategoryManipulation, 20, "sources close to", `(?i)\bsources close to\b`),
	rule(CategoryManipulation, 22, "leaked documents", `(?i)\bleaked (documents?|memos?|emails?|recordings?)\b`),
	rule(CategoryManipulation, 20, "insiders claim", `(?i)\binsiders? (claim|say|reveal)s?\b`),
	rule(CategoryManipulation, 18, "anonymous sources", `(?i)\banonymous sources?\b`),
	rule(CategoryManipulation, 18, "unnamed officials", `(?i)\bunnamed (officials?|sources?)\b`),

	// News attribution
	rule(CategoryAttribution, 10, "according to", `\b(?i:according to)(\s+(?i:the\s+)?\p{Lu}[\w&.-]*(\s+\p{Lu}[\w&.-]*){0,3})?`),
	rule(CategoryAttribution, 10, "sources say", `(?i)\bsources say\b`),
	rule(CategoryAttribution, 8, "reported by", `(?i)\breported by\b`),
	rule(CategoryAttribution, 5, "said", `(?i)\bsaid\b`),
	rule(CategoryAttribution, 5, "quoted", `(?i)\bquoted\b`),
	rule(CategoryAttribution, 8, "spokesperson", `(?i)\bspokes(person|man|woman)\b`),
	rule(CategoryAttribution, 5, "quoted speech", `["“][^"“”]{10,}["”]`),

	// Date and figure specificity
	rule(CategorySpecificity, 5, "month", `(?i)\b(`+months+`|may\s+\d{1,2})\b`),
	rule(CategorySpecificity, 5, "numeric date", `\b\d{1,2}/\d{1,2}/\d{4}\b`),
	rule(CategorySpecificity, 5, "year", `\b(19|20)\d{2}\b`),
	rule(CategorySpecificity, 5, "figure", `(?i)\b\d+(\.\d+)?\s*(%|percent\b|million\b|billion\b|thousand\b)`),

	// Conspiracy language
	rule(CategoryConspiracy, 30, "cover-up", `(?i)\bcover[- ]?ups?\b`),
	rule(CategoryConspiracy, 30, "conspiracy", `(?i)\bconspirac(y|ies)\b`),
	rule(CategoryConspiracy, 30, "they don't want you to know", `(?i)\bthey don[’']?t want you to know\b`),
	rule(CategoryConspiracy, 30, "hidden truth", `(?i)\bhidden truth\b`),
	rule(CategoryConspiracy, 30, "secret agenda", `(?i)\bsecret agenda\b`),
	rule(CategoryConspiracy, 30, "wake up", `(?i)\bwake up\b`),
	rule(CategoryConspiracy, 30, "sheeple", `(?i)\bsheeple\b`),

	// Emotional manipulation
	rule(CategoryEmotional, 10, "outraged", `(?i)\boutraged\b`),
	rule(CategoryEmotional, 10, "furious", `(?i)\bfurious\b`),
	rule(CategoryEmotional, 10, "devastated", `(?i)\bdevastated\b`),
	rule(CategoryEmotional, 10, "terrified", `(?i)\bterrified\b`),
	rule(CategoryEmotional, 10, "panic", `(?i)\bpanic(ked|king)?\b`),
	rule(CategoryEmotional, 10, "crisis", `(?i)\bcrisis\b`),
	rule(CategoryEmotional, 10, "disaster", `(?i)\bdisasters?\b`),

	// News cues, used only to decide whether text reads as news
	rule(CategoryNewsCue, 1, "breaking news", `(?i)\bbreaking news\b`),
	rule(CategoryNewsCue, 1, "reported", `(?i)\breported\b`),
	rule(CategoryNewsCue, 1, "according to", `(?i)\baccording to\b`),
	rule(CategoryNewsCue, 1, "sources say", `(?i)\bsources say\b`),
	rule(CategoryNewsCue, 1, "spokesperson", `(?i)\bspokesperson\b`),
	rule(CategoryNewsCue, 1, "statement", `(?i)\bstatement\b`),
	rule(CategoryNewsCue, 1, "announced", `(?i)\bannounced\b`),
	rule(CategoryNewsCue, 1, "confirmed", `(?i)\bconfirmed\b`),
	rule(CategoryNewsCue, 1, "investigation", `(?i)\binvestigation\b`),
	rule(CategoryNewsCue, 1, "authorities", `(?i)\bauthorities\b`),
	rule(CategoryNewsCue, 1, "officials", `(?i)\bofficials\b`),
	rule(CategoryNewsCue, 1, "government", `(?i)\bgovernment\b`),
	rule(CategoryNewsCue, 1, "president", `(?i)\bpresident\b`),
	rule(CategoryNewsCue, 1, "minister", `(?i)\bminister\b`),
	rule(CategoryNewsCue, 1, "senator", `(?i)\bsenator\b`),
	rule(CategoryNewsCue, 3, "news outlet", `(?i)\b(reuters|ap|cnn|bbc|fox|nbc|abc|cbs|npr)\b`),
	rule(CategoryNewsCue, 2, "dateline", `(?i)\b\d{1,2}/\d{1,2}/\d{4}\b|\b(`+months+`|may)\s+\d{1,2},?\s+\d{4}\b`),
	rule(CategoryNewsCue, 1, "quotation", `["“][^"“”]*["”]`),
}
