package lang

import "regexp"

// languages is the registration table. Order matters only where two
// languages claim the same extension: the first registration wins (".h"
// stays with C).
var languages = []*Language{
	{
		Tag: "go", Name: "Go", Family: FamilyBrace,
		Extensions:   []string{".go"},
		Separator:    "/",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		RawQuote:     '`',
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^import\s+(?:[\w.]+\s+|_\s+)?"([^"]+)"`)},
		},
		ImportBlockOpen: regexp.MustCompile(`^import\s*\($`),
		ImportBlockItem: regexp.MustCompile(`^(?:[\w.]+\s+|_\s+)?"([^"]+)"`),
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
		},
		MethodReceiver: regexp.MustCompile(`^func\s+\(\s*\w*\s*\*?([A-Za-z_]\w*)`),
	},
	{
		Tag: "python", Name: "Python", Family: FamilyIndent,
		Extensions:   []string{".py", ".pyi"},
		IndexStems:   []string{"__init__"},
		Separator:    ".",
		RelativeDots: true,
		LineComments: []string{"#"},
		Quotes:       `"'`,
		TripleQuote:  true,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^from\s+([.\w]+)\s+import\b`)},
			{Regex: regexp.MustCompile(`^import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`), List: true},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`),
		},
	},
	{
		Tag: "javascript", Name: "JavaScript", Family: FamilyBrace,
		Extensions:   []string{".js", ".jsx", ".mjs", ".cjs"},
		IndexStems:   []string{"index"},
		Separator:    "/",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		RawQuote:     '`',
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^(?:import|export)\s+[^'"]*?from\s+['"]([^'"]+)['"]`)},
			{Regex: regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`)},
			{Regex: regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
			{Regex: regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`),
			regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:function\s*\*?\s*)?\(`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)(?:\s+extends\s+([\w.$]+))?`),
		},
		MethodPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:static\s+)?(?:async\s+)?(?:get\s+|set\s+)?\*?\s*([A-Za-z_$#][\w$]*)\s*\(`),
		},
	},
	{
		Tag: "typescript", Name: "TypeScript", Family: FamilyBrace,
		Extensions:   []string{".ts", ".tsx", ".mts", ".cts"},
		IndexStems:   []string{"index"},
		Separator:    "/",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		RawQuote:     '`',
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^(?:import|export)\s+[^'"]*?from\s+['"]([^'"]+)['"]`)},
			{Regex: regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`)},
			{Regex: regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
			{Regex: regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`),
			regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:function\s*\*?\s*)?\(`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)(?:\s+extends\s+([\w.$]+))?(?:\s+implements\s+([\w.,\s$]+))?`),
			regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)(?:\s+extends\s+([\w.,\s$]+))?`),
		},
		MethodPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|readonly|static|abstract|override)\s+)*(?:async\s+)?(?:get\s+|set\s+)?\*?\s*([A-Za-z_$#][\w$]*)\s*[(<]`),
		},
	},
	{
		Tag: "ruby", Name: "Ruby", Family: FamilyIndent,
		Extensions:   []string{".rb", ".rake"},
		Separator:    "/",
		LineComments: []string{"#"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^require_relative\s+['"]([^'"]+)['"]`)},
			{Regex: regexp.MustCompile(`^require\s+['"]([^'"]+)['"]`)},
			{Regex: regexp.MustCompile(`^load\s+['"]([^'"]+)['"]`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^def\s+(?:self\.)?([A-Za-z_]\w*[?!=]?)`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^class\s+([A-Z]\w*)(?:\s*<\s*([\w:]+))?`),
			regexp.MustCompile(`^module\s+([A-Z]\w*)`),
		},
	},
	{
		Tag: "rust", Name: "Rust", Family: FamilyBrace,
		Extensions:   []string{".rs"},
		IndexStems:   []string{"mod", "lib"},
		Separator:    "::",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^(?:pub\s+)?use\s+([\w:]+)`)},
			{Regex: regexp.MustCompile(`^(?:pub\s+)?mod\s+([A-Za-z_]\w*)\s*;`)},
			{Regex: regexp.MustCompile(`^extern\s+crate\s+([A-Za-z_]\w*)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:pub\s*(?:\([^)]*\)\s*)?)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_]\w*)`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:pub\s*(?:\([^)]*\)\s*)?)?struct\s+([A-Za-z_]\w*)`),
			regexp.MustCompile(`^(?:pub\s*(?:\([^)]*\)\s*)?)?enum\s+([A-Za-z_]\w*)`),
			regexp.MustCompile(`^(?:pub\s*(?:\([^)]*\)\s*)?)?trait\s+([A-Za-z_]\w*)(?:\s*:\s*([^{]+))?`),
		},
		MethodContainer: regexp.MustCompile(`^impl(?:\s*<[^>]*>)?\s+(?:[\w:]+\s+for\s+)?([A-Za-z_]\w*)`),
	},
	{
		Tag: "java", Name: "Java", Family: FamilyBrace,
		Extensions:   []string{".java"},
		Separator:    ".",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^import\s+(?:static\s+)?([\w.]+)`)},
		},
		CStyleFuncs: true,
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract|sealed)\s+)*(?:class|interface|enum|record)\s+([A-Za-z_]\w*)(?:<[^>]*>)?(?:\s+extends\s+([\w<>,.\s]+?))?(?:\s+implements\s+([\w<>,.\s]+?))?\s*(?:\{|$)`),
		},
	},
	{
		Tag: "c", Name: "C", Family: FamilyBrace,
		Extensions:   []string{".c", ".h"},
		Separator:    "/",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^#\s*include\s*"([^"]+)"`)},
			{Regex: regexp.MustCompile(`^#\s*include\s*<([^>]+)>`)},
		},
		CStyleFuncs: true,
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:typedef\s+)?struct\s+([A-Za-z_]\w*)\s*\{`),
		},
	},
	{
		Tag: "cpp", Name: "C++", Family: FamilyBrace,
		Extensions:   []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"},
		Separator:    "/",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^#\s*include\s*"([^"]+)"`)},
			{Regex: regexp.MustCompile(`^#\s*include\s*<([^>]+)>`)},
		},
		CStyleFuncs: true,
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:template\s*<[^>]*>\s*)?(?:class|struct)\s+([A-Za-z_]\w*)\s*(?::\s*([^{;]+))?\s*(?:\{|$)`),
		},
	},
	{
		Tag: "csharp", Name: "C#", Family: FamilyBrace,
		Extensions:   []string{".cs"},
		Separator:    ".",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^(?:global\s+)?using\s+(?:static\s+)?([\w.]+)\s*;`)},
		},
		CStyleFuncs: true,
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|internal|static|sealed|abstract|partial)\s+)*(?:class|struct|interface|record)\s+([A-Za-z_]\w*)(?:<[^>]*>)?(?:\s*:\s*([^{]+?))?\s*(?:\{|$)`),
		},
	},
	{
		Tag: "php", Name: "PHP", Family: FamilyBrace,
		Extensions:   []string{".php"},
		Separator:    `\`,
		LineComments: []string{"//", "#"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^use\s+([\w\\]+)`)},
			{Regex: regexp.MustCompile(`\b(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|static|final|abstract)\s+)*function\s+&?([A-Za-z_]\w*)\s*\(`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:final|abstract)\s+)?class\s+([A-Za-z_]\w*)(?:\s+extends\s+([\w\\]+))?(?:\s+implements\s+([\w\\,\s]+))?`),
			regexp.MustCompile(`^(?:interface|trait)\s+([A-Za-z_]\w*)(?:\s+extends\s+([\w\\,\s]+))?`),
		},
	},
	{
		Tag: "swift", Name: "Swift", Family: FamilyBrace,
		Extensions:   []string{".swift"},
		Separator:    ".",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^import\s+([\w.]+)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|internal|open|fileprivate|static|final|override|mutating)\s+)*func\s+([A-Za-z_]\w*)`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|internal|open|fileprivate|final)\s+)*(?:class|struct|protocol|enum|extension)\s+([A-Za-z_]\w*)(?:\s*:\s*([^{]+))?`),
		},
	},
	{
		Tag: "kotlin", Name: "Kotlin", Family: FamilyBrace,
		Extensions:   []string{".kt", ".kts"},
		Separator:    ".",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^import\s+([\w.]+)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|internal|protected|open|override|suspend|inline|operator|infix)\s+)*fun\s+(?:<[^>]*>\s+)?(?:[\w.<>?]+\.)?([A-Za-z_]\w*)\s*\(`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|internal|open|abstract|final|data|sealed|enum|annotation|inner)\s+)*(?:class|interface|object)\s+([A-Za-z_]\w*)`),
		},
	},
	{
		Tag: "scala", Name: "Scala", Family: FamilyBrace,
		Extensions:   []string{".scala"},
		Separator:    ".",
		LineComments: []string{"//"},
		BlockComment: [2]string{"/*", "*/"},
		Quotes:       `"`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^import\s+([\w.]+)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:override|private|protected|implicit|final|lazy)\s+)*def\s+([A-Za-z_]\w*)`),
		},
		ClassPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:final|abstract|sealed|implicit|private|protected)\s+)*(?:case\s+)?(?:class|object|trait)\s+([A-Za-z_]\w*)`),
		},
	},
	{
		Tag: "shell", Name: "Shell", Family: FamilyKeyword,
		Extensions:   []string{".sh", ".bash", ".zsh"},
		Separator:    "/",
		LineComments: []string{"#"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^source\s+(\S+)`)},
			{Regex: regexp.MustCompile(`^\.\s+(\S+)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^(?:function\s+)?([A-Za-z_][\w-]*)\s*\(\s*\)`),
			regexp.MustCompile(`^function\s+([A-Za-z_][\w-]*)\s*\{`),
		},
	},
	{
		Tag: "makefile", Name: "Makefile", Family: FamilyKeyword,
		Extensions:   []string{".mk"},
		Separator:    "/",
		LineComments: []string{"#"},
		Quotes:       `"'`,
		Imports: []ImportPattern{
			{Regex: regexp.MustCompile(`^-?include\s+(\S+)`)},
		},
		FuncPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^([A-Za-z][\w./%-]*)\s*::?(?:\s|$)`),
		},
		ColumnZeroFuncs: true,
	},

	// Classified for statistics only; never parsed.
	{Tag: "sql", Name: "SQL", Extensions: []string{".sql"}},
	{Tag: "html", Name: "HTML", Extensions: []string{".html", ".htm"}},
	{Tag: "css", Name: "CSS", Extensions: []string{".css", ".scss", ".less"}},
	{Tag: "json", Name: "JSON", Extensions: []string{".json"}},
	{Tag: "yaml", Name: "YAML", Extensions: []string{".yaml", ".yml"}},
	{Tag: "toml", Name: "TOML", Extensions: []string{".toml"}},
	{Tag: "markdown", Name: "Markdown", Extensions: []string{".md", ".markdown", ".rst"}},
	{Tag: "dockerfile", Name: "Dockerfile", Extensions: nil},
}
