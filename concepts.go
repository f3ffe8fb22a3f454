package main

// Concept maps an abstract topic word to photogenic phrases, best first.
type Concept struct {
	Topic   string
	Phrases []string
}

// conceptDictionary is ordered; the first matching topic wins.
var conceptDictionary = []Concept{
	// business
	{"teamwork", []string{"team collaboration", "business team", "office teamwork", "colleagues working"}},
	{"innovation", []string{"creative innovation", "technology innovation", "business innovation", "lightbulb idea"}},
	{"leadership", []string{"business leader", "executive", "CEO", "management"}},
	{"success", []string{"business success", "achievement", "victory celebration", "winning"}},
	{"growth", []string{"business growth", "growth chart", "financial growth", "progress arrow"}},
	{"strategy", []string{"business strategy", "chess", "planning", "roadmap"}},
	{"productivity", []string{"productive office", "efficient work", "busy workplace", "working hard"}},
	{"partnership", []string{"business handshake", "partnership", "business deal", "cooperation"}},

	// technology
	{"technology", []string{"computer technology", "digital technology", "tech innovation", "laptop"}},
	{"data", []string{"data analytics", "big data", "data visualization", "statistics chart"}},
	{"security", []string{"cyber security", "data protection", "security lock", "shield protection"}},
	{"ai", []string{"artificial intelligence", "AI robot", "machine learning", "futuristic tech"}},
	{"cloud", []string{"cloud computing", "cloud storage", "server room", "data center"}},
	{"development", []string{"software development", "coding", "programming", "developer"}},
	{"digital", []string{"digital transformation", "digital innovation", "digital business"}},
	{"software", []string{"software technology", "software solution", "software platform"}},

	// communication
	{"communication", []string{"business meeting", "discussion", "presentation", "conference"}},
	{"marketing", []string{"digital marketing", "advertising", "social media", "promotion"}},
	{"customer", []string{"customer service", "client meeting", "customer satisfaction", "happy customer"}},
	{"sales", []string{"sales team", "sales chart", "retail", "commerce"}},
	{"presentation", []string{"business presentation", "presenting", "conference presentation"}},
	{"meeting", []string{"team meeting", "business meeting", "office meeting"}},

	// finance
	{"finance", []string{"financial", "money", "investment", "banking"}},
	{"budget", []string{"budget planning", "financial planning", "calculator", "accounting"}},
	{"profit", []string{"profit growth", "revenue", "earnings", "financial success"}},
	{"investment", []string{"stock market", "investment portfolio", "trading", "investor"}},
	{"revenue", []string{"business revenue", "income growth", "financial earnings"}},
	{"economy", []string{"global economy", "economic growth", "market economy"}},

	// healthcare
	{"healthcare", []string{"medical care", "healthcare system", "hospital healthcare"}},
	{"health", []string{"healthcare", "wellness", "medical", "healthy lifestyle"}},
	{"medical", []string{"medical technology", "medical equipment", "medical professionals"}},
	{"patient", []string{"patient care", "patient experience", "medical patient"}},
	{"wellness", []string{"health wellness", "wellness program", "healthy living"}},
	{"hospital", []string{"hospital healthcare", "medical center", "healthcare facility"}},

	// education
	{"education", []string{"education", "learning", "classroom", "students studying"}},
	{"learning", []string{"student learning", "online learning", "education learning"}},
	{"training", []string{"professional training", "employee training", "skill training"}},
	{"teaching", []string{"teacher classroom", "teaching students", "education teaching"}},
	{"student", []string{"students studying", "student success", "student learning"}},

	// other
	{"nature", []string{"nature landscape", "environment", "green nature", "outdoor"}},
	{"environment", []string{"green environment", "sustainable environment", "natural environment"}},
	{"sustainability", []string{"sustainable business", "green sustainability", "eco friendly"}},
	{"global", []string{"global business", "world map", "international", "globe"}},
	{"future", []string{"future technology", "futuristic", "tomorrow", "next generation"}},
	{"quality", []string{"high quality", "premium", "excellence", "professional"}},
	{"startup", []string{"startup business", "startup team", "startup office"}},
	{"remote", []string{"remote work", "work from home", "remote team"}},
}

var stopWords = setOf(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "about", "as", "is", "was", "are", "were",
	"been", "being", "have", "has", "had", "do", "does", "did", "will",
	"would", "could", "should", "may", "might", "must", "can", "shall",
	"very", "really", "quite", "just", "even",
)

// fillerPhrases are presentation wording that never helps a photo search.
var fillerPhrases = []string{
	"slide about", "showing", "discussing", "presenting", "illustrating",
	"demonstrating", "explaining", "slide for", "image of", "picture of",
	"visual representation", "graphic showing", "detailed search query:",
	"suggested image:", "relevant image", "for the", "that shows", "which displays",
}

// visualTerms are concrete nouns that photograph well.
var visualTerms = setOf(
	"office", "business", "people", "person", "team", "meeting",
	"desk", "computer", "laptop", "phone", "tablet", "screen",
	"chart", "graph", "diagram", "presentation", "whiteboard",
	"money", "dollar", "finance", "calculator", "document",
	"building", "city", "skyline", "workspace", "workplace",
	"handshake", "collaboration", "discussion", "conference",
)

var industryPrefixes = []string{"business", "professional", "modern", "office"}

var genericWords = setOf(
	"business", "modern", "professional", "digital", "new", "good", "best",
	"great", "success", "growth", "future", "global", "quality", "service",
)

var concreteWords = setOf(
	"team", "office", "computer", "laptop", "meeting", "desk", "chart",
	"graph", "people", "person", "building", "city", "nature", "technology",
	"money", "doctor", "student", "teacher", "phone", "tablet", "screen",
)

// contextualPrefixes pads a single-word query; the last entry is the default.
var contextualPrefixes = []struct {
	words    map[string]bool
	prefixes []string
}{
	{setOf("team", "meeting", "office", "workplace"), []string{"business", "corporate", "professional"}},
	{setOf("technology", "computer", "laptop", "software"), []string{"modern", "digital", "innovative"}},
	{setOf("growth", "success", "profit", "revenue"), []string{"business", "financial", "corporate"}},
	{setOf("education", "learning", "student", "teacher"), []string{"online", "modern", "classroom"}},
	{setOf("health", "medical", "patient", "doctor"), []string{"healthcare", "medical", "hospital"}},
}

var defaultPrefixes = []string{"business", "modern", "professional"}

var fallbackCategories = []struct {
	category string
	keywords []string
}{
	{"business", []string{"team", "office", "meeting", "corporate", "professional"}},
	{"technology", []string{"computer", "laptop", "digital", "tech", "innovation"}},
	{"finance", []string{"money", "chart", "graph", "investment", "financial"}},
	{"nature", []string{"landscape", "outdoor", "environment", "natural"}},
	{"abstract", []string{"background", "texture", "pattern", "abstract"}},
}

// businessTerms earn a small bonus when present in alt text.
var businessTerms = []string{"business", "office", "professional", "corporate", "meeting", "team"}

// colorPalettes associates context keywords with typical photo colours.
var colorPalettes = []struct {
	keyword string
	colors  []string
}{
	{"business", []string{"#0066CC", "#003366", "#333333", "#666666"}},
	{"professional", []string{"#2C3E50", "#34495E", "#1A1A1A", "#4A4A4A"}},
	{"technology", []string{"#0099FF", "#00CCFF", "#333333", "#0066CC"}},
	{"nature", []string{"#228B22", "#008000", "#90EE90", "#32CD32"}},
	{"creative", []string{"#FF6B6B", "#4ECDC4", "#FFE66D", "#A8E6CF"}},
	{"finance", []string{"#006400", "#008000", "#FFD700", "#0066CC"}},
	{"health", []string{"#32CD32", "#00CED1", "#FFFFFF", "#87CEEB"}},
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
