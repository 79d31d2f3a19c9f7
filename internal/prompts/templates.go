package prompts

// Introductions
const (
	// ReviewIntro opens prompts for changes that carry code
	ReviewIntro = "Please review the following %s %s:"

	// AnalysisIntro opens prompts for issues and other discussion items
	AnalysisIntro = "Please analyze the following %s %s:"
)

// Section headers
const (
	DescriptionHeader = "**Description:**"
	FilesHeader       = "**Files Changed (%d files):**"
	SummaryHeader     = "**Summary:**"
	CommentsHeader    = "**Comments:** %d comments"
	URLPrefix         = "**URL:** "
)

// Focus checklists
const (
	// ReviewFocus is appended to pull requests, merge requests, commits and
	// Gerrit changes
	ReviewFocus = `Please provide a comprehensive code review focusing on:
1. Code quality and best practices
2. Security implications of the changes
3. Performance impact
4. Backward compatibility
5. Test coverage and documentation
6. Compliance with project coding guidelines`

	// AnalysisFocus is appended to issues; %s is the resource noun
	AnalysisFocus = `Please provide analysis focusing on:
1. The nature and scope of the %s
2. Current state and progress
3. Key areas of concern or attention needed
4. Suggested next steps or actions`
)

// Truncation markers
const (
	Ellipsis       = "..."
	MoreFiles      = "... and %d more files"
	MoreComments   = "... and %d more comments"
	NoneListed     = "None"
	commentExcerpt = 200
)
