package tagline

const describePrompt = "Please describe this cat image in detail. Focus on the cat's appearance, pose, " +
	"expression, surroundings, and any notable or amusing features. Be descriptive but concise."

const captionSystemPrompt = "You are a witty copywriter who creates hilarious, clever taglines for cat photos. " +
	"Your taglines should be punny, relatable, and capture the essence of internet cat humor. " +
	"Keep them under 20 words and make them memorable."

// %s is the description, embedded verbatim.
const captionUserTemplate = "Based on this cat image description, create a funny tagline:\n\n%s\n\n" +
	"Make it punny and internet-cat-meme worthy!"

// User-facing failure messages, one per step.
const (
	MsgFetchFailed    = "Failed to fetch cat image"
	MsgSaveFailed     = "Failed to save cat image"
	MsgDescribeFailed = "Failed to describe cat image"
	MsgCaptionFailed  = "Failed to generate tagline"
)
