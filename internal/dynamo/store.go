package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hive-fieldops/backend/internal/calendar"
	"github.com/hive-fieldops/backend/internal/models"
	"github.com/hive-fieldops/backend/internal/service"
)

// Store persists requests, managers and calendar events in three tables keyed
// by id. Requests keep the full document as JSON next to a version attribute
// used for conditional writes.
type Store struct {
	ddb           API
	requestsTable string
	eventsTable   string
	managersTable string
}

var _ service.Store = (*Store)(nil)

func NewStore(ddb API, tablePrefix string) *Store {
	return &Store{
		ddb:           ddb,
		requestsTable: tablePrefix + "service_requests",
		eventsTable:   tablePrefix + "calendar_events",
		managersTable: tablePrefix + "managers",
	}
}

type requestItem struct {
	ID            string `dynamodbav:"id"`
	Status        string `dynamodbav:"status"`
	ClientArea    string `dynamodbav:"client_area"`
	ScheduledDate string `dynamodbav:"scheduled_date,omitempty"`
	Doc           string `dynamodbav:"doc"`
	Version       int    `dynamodbav:"version"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

type eventItem struct {
	ID          string `dynamodbav:"id"`
	OwnerID     string `dynamodbav:"owner_id"`
	Date        string `dynamodbav:"event_date"`
	Time        string `dynamodbav:"event_time"`
	EndTime     string `dynamodbav:"end_time,omitempty"`
	Title       string `dynamodbav:"title"`
	Description string `dynamodbav:"description,omitempty"`
	Kind        string `dynamodbav:"kind"`
	Location    string `dynamodbav:"location,omitempty"`
	Color       string `dynamodbav:"color,omitempty"`
	Reminder    string `dynamodbav:"reminder"`
	CreatedAt   string `dynamodbav:"created_at"`
}

type managerItem struct {
	ID     string   `dynamodbav:"id"`
	Name   string   `dynamodbav:"name"`
	Email  string   `dynamodbav:"email"`
	Areas  []string `dynamodbav:"areas,stringset,omitempty"`
	Active bool     `dynamodbav:"active"`
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.ddb.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.requestsTable)})
	return err
}

func (s *Store) CreateRequest(ctx context.Context, req models.ServiceRequest) error {
	av, err := marshalRequest(req, req.Version)
	if err != nil {
		return err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.requestsTable),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("request %s: %w", req.ID, service.ErrConflict)
	}
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (models.ServiceRequest, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.requestsTable),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.ServiceRequest{}, err
	}
	if len(out.Item) == 0 {
		return models.ServiceRequest{}, fmt.Errorf("request %s: %w", id, service.ErrNotFound)
	}
	var it requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return models.ServiceRequest{}, err
	}
	return fromRequestItem(it)
}

// ListRequests scans the table and filters in memory, newest first.
func (s *Store) ListRequests(ctx context.Context, f service.RequestFilter) ([]models.ServiceRequest, error) {
	all, err := s.scanRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.ServiceRequest{}
	for _, r := range all {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateRequest(ctx context.Context, req models.ServiceRequest) error {
	av, err := marshalRequest(req, req.Version+1)
	if err != nil {
		return err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.requestsTable),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_exists(#id) AND #version = :expected"),
		ExpressionAttributeNames: map[string]string{"#id": "id", "#version": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.Itoa(req.Version)},
		},
	})
	if !isConditionFailed(err) {
		return err
	}
	if _, getErr := s.GetRequest(ctx, req.ID); errors.Is(getErr, service.ErrNotFound) {
		return getErr
	}
	return fmt.Errorf("request %s version %d: %w", req.ID, req.Version, service.ErrConflict)
}

// ListManagers derives each manager's load from the requests delegated to or
// executed under them.
func (s *Store) ListManagers(ctx context.Context) ([]models.Manager, error) {
	var items []managerItem
	if err := s.scanAll(ctx, s.managersTable, &items); err != nil {
		return nil, err
	}
	reqs, err := s.scanRequests(ctx)
	if err != nil {
		return nil, err
	}
	load := map[string]int{}
	for _, r := range reqs {
		switch r.Status {
		case models.StatusDelegated, models.StatusApproved, models.StatusInProgress:
			if r.AssignedManagerID != nil {
				load[*r.AssignedManagerID]++
			}
		}
	}

	out := make([]models.Manager, 0, len(items))
	for _, it := range items {
		m := models.Manager{ID: it.ID, Name: it.Name, Email: it.Email, Active: it.Active, CurrentLoad: load[it.ID]}
		sort.Strings(it.Areas)
		for _, a := range it.Areas {
			m.Areas = append(m.Areas, models.Area(a))
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentLoad != out[j].CurrentLoad {
			return out[i].CurrentLoad < out[j].CurrentLoad
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PutManager upserts a manager record.
func (s *Store) PutManager(ctx context.Context, m models.Manager) error {
	av, err := attributevalue.MarshalMap(toManagerItem(m))
	if err != nil {
		return err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.managersTable), Item: av})
	return err
}

func (s *Store) CreateEvent(ctx context.Context, ev models.ScheduledEvent) error {
	av, err := attributevalue.MarshalMap(toEventItem(ev))
	if err != nil {
		return err
	}
	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.eventsTable),
		Item:                     av,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("event %s: %w", ev.ID, service.ErrConflict)
	}
	return err
}

func (s *Store) GetEvent(ctx context.Context, id string) (models.ScheduledEvent, error) {
	out, err := s.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.eventsTable),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.ScheduledEvent{}, err
	}
	if len(out.Item) == 0 {
		return models.ScheduledEvent{}, fmt.Errorf("event %s: %w", id, service.ErrNotFound)
	}
	var it eventItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return models.ScheduledEvent{}, err
	}
	return fromEventItem(it)
}

func (s *Store) ListEvents(ctx context.Context, from, to civil.Date, ownerID string) ([]models.ScheduledEvent, error) {
	filter := "#date BETWEEN :from AND :to"
	names := map[string]string{"#date": "event_date"}
	values := map[string]types.AttributeValue{
		":from": &types.AttributeValueMemberS{Value: from.String()},
		":to":   &types.AttributeValueMemberS{Value: to.String()},
	}
	if ownerID != "" {
		filter += " AND #owner = :owner"
		names["#owner"] = "owner_id"
		values[":owner"] = &types.AttributeValueMemberS{Value: ownerID}
	}

	var items []eventItem
	p := dynamodb.NewScanPaginator(s.ddb, &dynamodb.ScanInput{
		TableName:                 aws.String(s.eventsTable),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []eventItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}

	out := make([]models.ScheduledEvent, 0, len(items))
	for _, it := range items {
		ev, err := fromEventItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return calendar.TimeBefore(out[i].Time, out[j].Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.eventsTable),
		Key:                      idKey(id),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("event %s: %w", id, service.ErrNotFound)
	}
	return err
}

func (s *Store) scanRequests(ctx context.Context) ([]models.ServiceRequest, error) {
	var items []requestItem
	if err := s.scanAll(ctx, s.requestsTable, &items); err != nil {
		return nil, err
	}
	out := make([]models.ServiceRequest, 0, len(items))
	for _, it := range items {
		r, err := fromRequestItem(it)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) scanAll(ctx context.Context, table string, out any) error {
	var raw []map[string]types.AttributeValue
	p := dynamodb.NewScanPaginator(s.ddb, &dynamodb.ScanInput{TableName: aws.String(table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return err
		}
		raw = append(raw, page.Items...)
	}
	return attributevalue.UnmarshalListOfMaps(raw, out)
}

func marshalRequest(req models.ServiceRequest, version int) (map[string]types.AttributeValue, error) {
	req.Version = version
	doc, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	it := requestItem{
		ID:         req.ID,
		Status:     string(req.Status),
		ClientArea: string(req.ClientArea),
		Doc:        string(doc),
		Version:    version,
		UpdatedAt:  req.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if req.ScheduledDate != nil {
		it.ScheduledDate = req.ScheduledDate.String()
	}
	return attributevalue.MarshalMap(it)
}

func fromRequestItem(it requestItem) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := json.Unmarshal([]byte(it.Doc), &req); err != nil {
		return models.ServiceRequest{}, fmt.Errorf("decode request %s: %w", it.ID, err)
	}
	req.Version = it.Version
	if req.AvailableDates == nil {
		req.AvailableDates = []civil.Date{}
	}
	return req, nil
}

func toEventItem(ev models.ScheduledEvent) eventItem {
	it := eventItem{
		ID:          ev.ID,
		OwnerID:     ev.OwnerID,
		Date:        ev.Date.String(),
		Time:        ev.Time.String(),
		Title:       ev.Title,
		Description: ev.Description,
		Kind:        string(ev.Kind),
		Location:    ev.Location,
		Color:       ev.Color,
		Reminder:    string(ev.Reminder),
		CreatedAt:   ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if ev.EndTime != nil {
		it.EndTime = ev.EndTime.String()
	}
	return it
}

func fromEventItem(it eventItem) (models.ScheduledEvent, error) {
	date, err := civil.ParseDate(it.Date)
	if err != nil {
		return models.ScheduledEvent{}, err
	}
	at, err := civil.ParseTime(it.Time)
	if err != nil {
		return models.ScheduledEvent{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return models.ScheduledEvent{}, fmt.Errorf("decode event %s created_at: %w", it.ID, err)
	}
	ev := models.ScheduledEvent{
		ID:          it.ID,
		Date:        date,
		Time:        at,
		Title:       it.Title,
		Description: it.Description,
		Kind:        models.EventKind(it.Kind),
		Location:    it.Location,
		Color:       it.Color,
		Reminder:    models.Reminder(it.Reminder),
		OwnerID:     it.OwnerID,
		Source:      models.SourceRef{Type: models.SourcePersonalEvent, ID: it.ID},
		CreatedAt:   createdAt,
	}
	if it.EndTime != "" {
		end, err := civil.ParseTime(it.EndTime)
		if err != nil {
			return models.ScheduledEvent{}, err
		}
		ev.EndTime = &end
	}
	return ev, nil
}

func toManagerItem(m models.Manager) managerItem {
	it := managerItem{ID: m.ID, Name: m.Name, Email: m.Email, Active: m.Active}
	for _, a := range m.Areas {
		it.Areas = append(it.Areas, string(a))
	}
	return it
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &cfe)
}
