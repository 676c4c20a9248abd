package reason

const parsingSystemPrompt = `You are a grocery list parsing assistant.
Parse the user's grocery list into structured JSON.
Extract: item_name, quantity, unit.
Return ONLY valid JSON, no markdown, no explanation.`

const classifierSystemPrompt = `You are a helpful grocery shopping assistant.
Respond to user questions about their shopping cart and classify what they
want changed. Return ONLY valid JSON.`

const reasoningSystemPrompt = `You are a logical reasoning expert for grocery shopping.
Make decisions about which products to buy considering vendor options.
Use deterministic reasoning, not speculation.
Return ONLY valid JSON with decision and confidence score.`

const explainerSystemPrompt = `You are a shopping decision EXPLAINER.

A deterministic pricing engine has ALREADY selected the optimal variant.
You MUST NOT change the selection.

Your task:
1. Explain why this variant was selected
2. Mention price comparison clearly
3. If aggregation was used, explain savings
4. DO NOT suggest alternatives
5. DO NOT recompute price or quantity

Return ONLY valid JSON:
{
  "reason": "...",
  "confidence": 0.0-1.0
}`

const parseListPromptTemplate = `Parse this grocery list and return JSON:

User input: %q

Return JSON with this structure:
{
    "items": [
        {"item_name": "product_name", "quantity": 0.5, "unit": "kg"}
    ]
}

Rules:
- Use lowercase, underscores for item names (e.g., "basmati_rice")
- Extract quantity and unit separately
- Allowed units: kg, g, l, ml, count
- If no unit specified, use "count"
- If no quantity, assume 1`

const classifyPromptTemplate = `User asked: %q

Current cart context:
%s

Understand the user's request and determine the action needed.

Return JSON:
{
    "response": "answer to user",
    "action": "none|modify_item|remove_item|add_item|recompare",
    "action_parameters": {
        "product_name": "cart product key if one is referenced",
        "new_items_input": "raw text of any brand-new items to add",
        "question": "the user's question if this is a question"
    }
}`

const selectVendorPromptTemplate = `Select the best vendor for %q.

Available options:
%s
%s
Recommend the vendor that provides best value and matches the requirement.
Consider: price, variety, brand options, user preference.

Return JSON:
{
    "selected_vendor": "vendor_name",
    "selected_variant": {
        "brand": "...",
        "pack_size": 0,
        "unit": "...",
        "price": 0.0
    },
    "reasoning": "why this vendor/variant matches the requirement",
    "confidence": 0.95
}`

const modifyContextTemplate = `
USER CONTEXT (important for this selection):
- User's specific requirement: %q
- Current selection in cart: %s

TASK: Select the BEST option that matches the user's stated requirement above.
The user has explicitly asked for this change, so prioritise their requirement.
`

const explainPromptTemplate = `Product: %s

User requested: %v%s

Final decision (DO NOT CHANGE):
- Strategy: %s
- Brand: %s
- Pack size: %v%s
- Vendor: %s
- Total price: %.2f
- Reason code: %s

Explain clearly WHY this was chosen.`
