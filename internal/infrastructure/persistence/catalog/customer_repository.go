package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

const customerColumns = `id, name, email, phone, address, created, changed`

// CustomerRepository reads and maintains customer records. New customers
// arrive through the storefront ordering flow, so there is no Store here;
// the dashboard only views, corrects and removes them.
type CustomerRepository struct {
	db     *sql.DB
	cache  interfaces.CatalogCache
	logger *logging.ChanneledLogger
}

func NewCustomerRepository(db *sql.DB, cache interfaces.CatalogCache, logger *logging.ChanneledLogger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *CustomerRepository) FindByID(tenantID, id string) (*catalog.CustomerNode, error) {
	if customer, found := r.cache.GetCustomer(tenantID, id); found {
		return customer, nil
	}

	customer, err := r.loadFromDB(id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, nil
	}

	r.cache.SetCustomer(tenantID, customer)
	return customer, nil
}

// FindAll retrieves all customers for a tenant, employing a cache-first strategy.
func (r *CustomerRepository) FindAll(tenantID string) ([]*catalog.CustomerNode, error) {
	if ids, found := r.cache.GetAllCustomerIDs(tenantID); found {
		return r.findByIDs(tenantID, ids)
	}

	ids, err := r.loadAllIDsFromDB()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*catalog.CustomerNode{}, nil
	}

	r.cache.SetAllCustomerIDs(tenantID, ids)
	return r.findByIDs(tenantID, ids)
}

func (r *CustomerRepository) findByIDs(tenantID string, ids []string) ([]*catalog.CustomerNode, error) {
	var result []*catalog.CustomerNode
	var missingIDs []string

	for _, id := range ids {
		if customer, found := r.cache.GetCustomer(tenantID, id); found {
			result = append(result, customer)
		} else {
			missingIDs = append(missingIDs, id)
		}
	}

	if len(missingIDs) > 0 {
		missingCustomers, err := r.loadMultipleFromDB(missingIDs)
		if err != nil {
			return nil, err
		}

		for _, customer := range missingCustomers {
			r.cache.SetCustomer(tenantID, customer)
			result = append(result, customer)
		}
	}

	return result, nil
}

// FindPage loads one filtered page of customers straight from the database.
func (r *CustomerRepository) FindPage(tenantID string, query repositories.CustomerQuery) ([]*catalog.CustomerNode, int, error) {
	where := ""
	var args []any
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		where = " WHERE (name LIKE ? OR email LIKE ?)"
		args = append(args, pattern, pattern)
	}

	total, err := countRows(r.db, r.logger, `SELECT COUNT(*) FROM customers`+where, args, tenantID)
	if err != nil {
		return nil, 0, err
	}

	pageQuery := `SELECT ` + customerColumns + ` FROM customers` + where +
		` ORDER BY name, id LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), query.Limit, query.Offset())

	start := time.Now()
	r.logger.Database().Debug("Loading customer page from database", "page", query.Page, "limit", query.Limit)

	rows, err := r.db.Query(pageQuery, pageArgs...)
	if err != nil {
		r.logger.Database().Error("Failed to query customer page", "error", err.Error())
		return nil, 0, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*catalog.CustomerNode
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		r.cache.SetCustomer(tenantID, customer)
		customers = append(customers, customer)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Customer page loaded from database", "count", len(customers), "total", total, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, pageQuery, duration, tenantID)
	return customers, total, rows.Err()
}

func (r *CustomerRepository) Update(tenantID string, customer *catalog.CustomerNode) error {
	query := `UPDATE customers SET name = ?, email = ?, phone = ?, address = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing customer update", "id", customer.ID)

	_, err := r.db.Exec(query, customer.Name, customer.Email, customer.Phone,
		customer.Address, formatNullableTime(customer.Changed), customer.ID)
	if err != nil {
		r.logger.Database().Error("Customer update failed", "error", err.Error(), "id", customer.ID)
		return fmt.Errorf("failed to update customer: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Customer update completed", "id", customer.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetCustomer(tenantID, customer)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

func (r *CustomerRepository) Delete(tenantID, id string) error {
	query := `DELETE FROM customers WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing customer delete", "id", id)

	_, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Database().Error("Customer delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Customer delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.InvalidateCustomer(tenantID, id)
	return nil
}

func scanCustomer(s rowScanner) (*catalog.CustomerNode, error) {
	var customer catalog.CustomerNode
	var phone, address, changed sql.NullString
	var createdStr string

	err := s.Scan(&customer.ID, &customer.Name, &customer.Email, &phone, &address, &createdStr, &changed)
	if err != nil {
		return nil, err
	}

	customer.Phone = nullableString(phone)
	customer.Address = nullableString(address)
	if created, err := parseTimestamp(createdStr); err == nil {
		customer.Created = created
	}
	customer.Changed = nullableTime(changed)
	customer.NodeType = "Customer"

	return &customer, nil
}

func (r *CustomerRepository) loadFromDB(id string) (*catalog.CustomerNode, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading customer from database", "id", id)

	customer, err := scanCustomer(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan customer", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Customer loaded from database", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return customer, nil
}

func (r *CustomerRepository) loadMultipleFromDB(ids []string) ([]*catalog.CustomerNode, error) {
	if len(ids) == 0 {
		return []*catalog.CustomerNode{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	start := time.Now()
	r.logger.Database().Debug("Loading multiple customers from database", "count", len(ids))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to query multiple customers", "error", err.Error(), "count", len(ids))
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*catalog.CustomerNode
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Multiple customers loaded from database", "requested", len(ids), "loaded", len(customers), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return customers, rows.Err()
}

func (r *CustomerRepository) loadAllIDsFromDB() ([]string, error) {
	query := `SELECT id FROM customers ORDER BY name`

	start := time.Now()
	r.logger.Database().Debug("Loading all customer IDs from database")

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query customer IDs", "error", err.Error())
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan customer ID: %w", err)
		}
		customerIDs = append(customerIDs, id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Loaded customer IDs from database", "count", len(customerIDs), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return customerIDs, rows.Err()
}
