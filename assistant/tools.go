package assistant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mlovric/trosak/models"
	"github.com/mlovric/trosak/utils"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// toolFunc executes one assistant tool for a user. Results are plain maps
// so they can be fed back to the model as function responses.
type toolFunc func(ctx context.Context, userID string, args map[string]any) (map[string]any, error)

type tool struct {
	decl *genai.FunctionDeclaration
	run  toolFunc
}

const maxSearchResults = 50

// argument helpers; the model is not strict about JSON number vs string.

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func argFloat(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func argInt(args map[string]any, key string, def int) int {
	if f, ok := argFloat(args, key); ok {
		return int(f)
	}
	return def
}

func argDate(args map[string]any, key string) (time.Time, bool) {
	s := argString(args, key)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func transactionSummary(txn models.Transaction) map[string]any {
	categoryName := ""
	if txn.Category != nil {
		categoryName = txn.Category.Name
	}
	return map[string]any{
		"id":          txn.ID,
		"date":        txn.Date.Format("2006-01-02"),
		"description": txn.Description,
		"amount":      txn.Amount.String(),
		"type":        string(txn.Type),
		"category":    categoryName,
	}
}

// toolRegistry wires every assistant tool: its declaration for the model
// and the function that runs it.
func toolRegistry() map[string]tool {
	registry := map[string]tool{}

	registry["searchTransactions"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "searchTransactions",
			Description: "Search the user's transactions by free-text description match, optionally bounded by a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query":        {Type: genai.TypeString, Description: "Text to match against transaction descriptions and category names."},
					"type":         {Type: genai.TypeString, Description: "Restrict to income or expense."},
					"categoryName": {Type: genai.TypeString, Description: "Restrict to one category by exact name."},
					"startDate":    {Type: genai.TypeString, Description: "Inclusive lower bound, YYYY-MM-DD."},
					"endDate":      {Type: genai.TypeString, Description: "Inclusive upper bound, YYYY-MM-DD."},
					"limit":        {Type: genai.TypeInteger, Description: "Maximum results, default 20."},
					"sortBy":       {Type: genai.TypeString, Description: "Sort order: date (default, newest first) or amount (largest first)."},
				},
			},
		},
		run: searchTransactions,
	}

	registry["analyzeCategorySpending"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "analyzeCategorySpending",
			Description: "Total and average spending in one category over the last N months.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"categoryName":     {Type: genai.TypeString, Description: "Exact category name."},
					"months":           {Type: genai.TypeInteger, Description: "Lookback window in months, default 3."},
					"monthlyBreakdown": {Type: genai.TypeBoolean, Description: "Include per-month totals."},
				},
				Required: []string{"categoryName"},
			},
		},
		run: analyzeCategorySpending,
	}

	registry["getFinancialOverview"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "getFinancialOverview",
			Description: "Income, expense and net balance for a date range; defaults to the user's current billing period.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"startDate": {Type: genai.TypeString, Description: "Inclusive lower bound, YYYY-MM-DD."},
					"endDate":   {Type: genai.TypeString, Description: "Inclusive upper bound, YYYY-MM-DD."},
				},
			},
		},
		run: getFinancialOverview,
	}

	registry["analyzeSpendingTrends"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "analyzeSpendingTrends",
			Description: "Month-by-month expense totals over the last N months, with the overall direction.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"months": {Type: genai.TypeInteger, Description: "Lookback window in months, default 6."},
				},
			},
		},
		run: analyzeSpendingTrends,
	}

	registry["getSavingsInsights"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "getSavingsInsights",
			Description: "Savings this billing period against the user's savings goal.",
			Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}},
		},
		run: getSavingsInsights,
	}

	registry["getAvailableCategories"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "getAvailableCategories",
			Description: "List the user's categories, optionally filtered by type.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {Type: genai.TypeString, Description: "Either income or expense."},
				},
			},
		},
		run: getAvailableCategories,
	}

	registry["compareTimePeriods"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "compareTimePeriods",
			Description: "Compare income/expense totals between two date ranges.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"period1Start": {Type: genai.TypeString, Description: "First range start, YYYY-MM-DD."},
					"period1End":   {Type: genai.TypeString, Description: "First range end, YYYY-MM-DD."},
					"period2Start": {Type: genai.TypeString, Description: "Second range start, YYYY-MM-DD."},
					"period2End":   {Type: genai.TypeString, Description: "Second range end, YYYY-MM-DD."},
				},
				Required: []string{"period1Start", "period1End", "period2Start", "period2End"},
			},
		},
		run: compareTimePeriods,
	}

	registry["createNewExpenseTransaction"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "createNewExpenseTransaction",
			Description: "Record a new expense for the user. Use getAvailableCategories first to pick a valid category name.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"amount":       {Type: genai.TypeNumber, Description: "Positive amount."},
					"description":  {Type: genai.TypeString, Description: "What the money was spent on."},
					"categoryName": {Type: genai.TypeString, Description: "Existing expense category name."},
					"date":         {Type: genai.TypeString, Description: "YYYY-MM-DD, default today."},
				},
				Required: []string{"amount", "description", "categoryName"},
			},
		},
		run: createNewExpenseTransaction,
	}

	registry["modifyTransaction"] = tool{
		decl: &genai.FunctionDeclaration{
			Name:        "modifyTransaction",
			Description: "Change the amount, description, date or category of an existing transaction.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"transactionId": {Type: genai.TypeString, Description: "ID of the transaction to change."},
					"amount":        {Type: genai.TypeNumber, Description: "New positive amount."},
					"description":   {Type: genai.TypeString, Description: "New description."},
					"date":          {Type: genai.TypeString, Description: "New date, YYYY-MM-DD."},
					"categoryName":  {Type: genai.TypeString, Description: "New category name; must match the transaction type."},
				},
				Required: []string{"transactionId"},
			},
		},
		run: modifyTransaction,
	}

	return registry
}

func searchTransactions(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	from, _ := argDate(args, "startDate")
	to, _ := argDate(args, "endDate")
	limit := argInt(args, "limit", 20)
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	query := strings.ToLower(argString(args, "query"))
	typeFilter := strings.ToLower(argString(args, "type"))
	categoryFilter := argString(args, "categoryName")

	transactions, err := models.GetTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if typeFilter != "" && string(txn.Type) != typeFilter {
			continue
		}
		if categoryFilter != "" && (txn.Category == nil || !strings.EqualFold(txn.Category.Name, categoryFilter)) {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(txn.Description)
			if txn.Category != nil {
				haystack += " " + strings.ToLower(txn.Category.Name)
			}
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		matched = append(matched, txn)
	}

	if argString(args, "sortBy") == "amount" {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Amount.GreaterThan(matched[j].Amount)
		})
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	matches := make([]map[string]any, 0, len(matched))
	for _, txn := range matched {
		matches = append(matches, transactionSummary(txn))
	}
	return map[string]any{"count": len(matches), "transactions": matches}, nil
}

func analyzeCategorySpending(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	categoryName := argString(args, "categoryName")
	if categoryName == "" {
		return nil, fmt.Errorf("categoryName is required")
	}
	months := argInt(args, "months", 3)
	if months < 1 {
		months = 1
	}

	from, to := utils.GetLastMonthsRange(months)
	transactions, err := models.GetTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	count := 0
	perMonth := map[string]decimal.Decimal{}
	for _, txn := range transactions {
		if txn.Category == nil || !strings.EqualFold(txn.Category.Name, categoryName) {
			continue
		}
		total = total.Add(txn.Amount)
		count++
		key := txn.Date.Format("2006-01")
		perMonth[key] = perMonth[key].Add(txn.Amount)
	}

	monthlyAverage := decimal.Zero
	if months > 0 {
		monthlyAverage = total.Div(decimal.NewFromInt(int64(months))).Round(2)
	}
	result := map[string]any{
		"category":       categoryName,
		"months":         months,
		"total":          total.String(),
		"count":          count,
		"monthlyAverage": monthlyAverage.String(),
	}
	if wantBreakdown, _ := args["monthlyBreakdown"].(bool); wantBreakdown {
		keys := make([]string, 0, len(perMonth))
		for key := range perMonth {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		breakdown := make([]map[string]any, 0, len(keys))
		for _, key := range keys {
			breakdown = append(breakdown, map[string]any{"month": key, "total": perMonth[key].String()})
		}
		result["monthlyBreakdown"] = breakdown
	}
	return result, nil
}

func getFinancialOverview(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	from, hasFrom := argDate(args, "startDate")
	to, hasTo := argDate(args, "endDate")
	label := ""

	if !hasFrom && !hasTo {
		settings, err := models.GetUserSettings(ctx, userID)
		if err != nil {
			return nil, err
		}
		period := models.GetBillingPeriod(settings.BillingCycleDay, time.Now())
		from, to = period.From, period.To
		label = period.Label()
	}

	stats, err := models.GetBalanceStats(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"income":  stats.Income.String(),
		"expense": stats.Expense.String(),
		"net":     stats.Net.String(),
	}
	if stats.Income.IsPositive() {
		rate := stats.Net.Div(stats.Income).Mul(decimal.NewFromInt(100)).Round(1)
		result["savingsRatePercent"] = rate.String()
	}

	categoryStats, err := models.GetCategoryStats(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	topCategories := make([]map[string]any, 0, 5)
	for _, cs := range categoryStats {
		if cs.Type != models.TransactionTypeExpense {
			continue
		}
		topCategories = append(topCategories, map[string]any{
			"category": cs.Category,
			"total":    cs.Total.String(),
		})
		if len(topCategories) >= 5 {
			break
		}
	}
	result["topExpenseCategories"] = topCategories

	if label != "" {
		result["period"] = label
	} else {
		result["from"] = from.Format("2006-01-02")
		result["to"] = to.Format("2006-01-02")
	}
	return result, nil
}

func analyzeSpendingTrends(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	months := argInt(args, "months", 6)
	if months < 2 {
		months = 2
	}

	from, to := utils.GetLastMonthsRange(months)
	transactions, err := models.GetTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	buckets := map[string]decimal.Decimal{}
	for _, txn := range transactions {
		if txn.Type != models.TransactionTypeExpense {
			continue
		}
		key := txn.Date.Format("2006-01")
		buckets[key] = buckets[key].Add(txn.Amount)
	}

	monthly := make([]map[string]any, 0, months)
	first := decimal.Zero
	last := decimal.Zero
	cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < months; i++ {
		key := cursor.Format("2006-01")
		total := buckets[key]
		monthly = append(monthly, map[string]any{"month": key, "expense": total.String()})
		if i == 0 {
			first = total
		}
		last = total
		cursor = cursor.AddDate(0, 1, 0)
	}

	direction := "stable"
	switch {
	case last.GreaterThan(first):
		direction = "rising"
	case last.LessThan(first):
		direction = "falling"
	}
	return map[string]any{"months": monthly, "direction": direction}, nil
}

func getSavingsInsights(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	settings, err := models.GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	period := models.GetBillingPeriod(settings.BillingCycleDay, time.Now())
	stats, err := models.GetBalanceStats(ctx, userID, period.From, period.To)
	if err != nil {
		return nil, err
	}

	lifetime, err := models.GetBalanceStats(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"period":         period.Label(),
		"saved":          stats.Net.String(),
		"savingsGoal":    settings.SavingsGoal.String(),
		"initialBalance": settings.InitialBalance.String(),
		"lifetimeNet":    settings.InitialBalance.Add(lifetime.Net).String(),
	}
	if settings.SavingsGoal.IsPositive() {
		progress := stats.Net.Div(settings.SavingsGoal).Mul(decimal.NewFromInt(100)).Round(1)
		result["goalProgressPercent"] = progress.String()
	}
	return result, nil
}

func getAvailableCategories(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	typeFilter := models.TransactionType(argString(args, "type"))
	if typeFilter != "" && !typeFilter.IsValid() {
		return nil, fmt.Errorf("type must be income or expense")
	}

	categories, err := models.GetCategories(ctx, userID, typeFilter)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(categories))
	for _, cat := range categories {
		out = append(out, map[string]any{
			"name": cat.Name,
			"type": string(cat.Type),
			"icon": cat.Icon,
		})
	}
	return map[string]any{"categories": out}, nil
}

func compareTimePeriods(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	p1From, ok1 := argDate(args, "period1Start")
	p1To, ok2 := argDate(args, "period1End")
	p2From, ok3 := argDate(args, "period2Start")
	p2To, ok4 := argDate(args, "period2End")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("all four period dates are required as YYYY-MM-DD")
	}

	stats1, err := models.GetBalanceStats(ctx, userID, p1From, p1To)
	if err != nil {
		return nil, err
	}
	stats2, err := models.GetBalanceStats(ctx, userID, p2From, p2To)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"period1": map[string]any{
			"from":    p1From.Format("2006-01-02"),
			"to":      p1To.Format("2006-01-02"),
			"income":  stats1.Income.String(),
			"expense": stats1.Expense.String(),
		},
		"period2": map[string]any{
			"from":    p2From.Format("2006-01-02"),
			"to":      p2To.Format("2006-01-02"),
			"income":  stats2.Income.String(),
			"expense": stats2.Expense.String(),
		},
		"incomeChange":  stats2.Income.Sub(stats1.Income).String(),
		"expenseChange": stats2.Expense.Sub(stats1.Expense).String(),
	}, nil
}

func findCategoryByName(ctx context.Context, userID string, name string, txnType models.TransactionType) (*models.Category, error) {
	categories, err := models.GetCategories(ctx, userID, txnType)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("no %s category named %q", txnType, name)
}

func createNewExpenseTransaction(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	amount, ok := argFloat(args, "amount")
	if !ok || amount <= 0 {
		return nil, fmt.Errorf("amount must be a positive number")
	}
	description := argString(args, "description")
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}

	category, err := findCategoryByName(ctx, userID, argString(args, "categoryName"), models.TransactionTypeExpense)
	if err != nil {
		return nil, err
	}

	date, ok := argDate(args, "date")
	if !ok {
		date = time.Now()
	}

	txn, err := models.CreateTransaction(ctx, userID, &models.NewTransaction{
		Amount:      decimal.NewFromFloat(amount).Round(2),
		Description: description,
		Date:        date,
		Type:        models.TransactionTypeExpense,
		CategoryId:  category.ID,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"created": true, "transaction": transactionSummary(*txn)}, nil
}

func modifyTransaction(ctx context.Context, userID string, args map[string]any) (map[string]any, error) {
	id := argString(args, "transactionId")
	if id == "" {
		return nil, fmt.Errorf("transactionId is required")
	}

	existing, err := models.GetTransactionById(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	input := models.NewTransaction{
		Amount:      existing.Amount,
		Description: existing.Description,
		Date:        existing.Date,
		Type:        existing.Type,
		CategoryId:  existing.CategoryId,
	}
	if amount, ok := argFloat(args, "amount"); ok {
		if amount <= 0 {
			return nil, fmt.Errorf("amount must be a positive number")
		}
		input.Amount = decimal.NewFromFloat(amount).Round(2)
	}
	if description := argString(args, "description"); description != "" {
		input.Description = description
	}
	if date, ok := argDate(args, "date"); ok {
		input.Date = date
	}
	if categoryName := argString(args, "categoryName"); categoryName != "" {
		category, err := findCategoryByName(ctx, userID, categoryName, existing.Type)
		if err != nil {
			return nil, err
		}
		input.CategoryId = category.ID
	}

	updated, err := models.UpdateTransaction(ctx, userID, id, &input)
	if err != nil {
		return nil, err
	}
	return map[string]any{"updated": true, "transaction": transactionSummary(*updated)}, nil
}
